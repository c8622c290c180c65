package models

import "time"

// Field identifiers of the NUP form. They double as keys of the validation error map.
const (
	FieldNama            = "nama"
	FieldKtp             = "ktp"
	FieldAlamat          = "alamat"
	FieldHp              = "hp"
	FieldEmail           = "email"
	FieldJumlahNUP       = "jumlahNUP"
	FieldCaraBayar       = "caraBayar"
	FieldKehadiran       = "kehadiran"
	FieldSetujuKetentuan = "setujuKetentuan"
	FieldCaptcha         = "captcha"
	FieldFiles           = "files"
)

type PaymentMethod string

const (
	PaymentTunai    PaymentMethod = "Tunai"
	PaymentTransfer PaymentMethod = "Transfer"
)

var PaymentMethods = []PaymentMethod{PaymentTunai, PaymentTransfer}

type Attendance string

const (
	AttendanceSelf      Attendance = "Hadir sendiri"
	AttendanceProxy     Attendance = "Diwakilkan dengan Surat Kuasa"
	AttendanceWithdrawn Attendance = "Tidak hadir / mengundurkan diri"
)

var Attendances = []Attendance{AttendanceSelf, AttendanceProxy, AttendanceWithdrawn}

// FormRecord holds every value the registrant typed or selected.
type FormRecord struct {
	Nama            string        `json:"nama" validate:"filled"`
	Ktp             string        `json:"ktp" validate:"filled"`
	Alamat          string        `json:"alamat" validate:"filled"`
	Hp              string        `json:"hp" validate:"filled,idphone"`
	Email           string        `json:"email" validate:"filled,looseemail"`
	JumlahNUP       string        `json:"jumlahNUP" validate:"omitempty,rupiah"`
	CaraBayar       PaymentMethod `json:"caraBayar"`
	Kehadiran       Attendance    `json:"kehadiran"`
	SetujuKetentuan bool          `json:"setujuKetentuan" validate:"agreed"`
	Captcha         string        `json:"captcha" validate:"phrase"`
	Files           []Attachment  `json:"files"`
}

// NewFormRecord returns the record a fresh session starts with.
func NewFormRecord() FormRecord {
	return FormRecord{
		CaraBayar: PaymentTunai,
		Kehadiran: AttendanceSelf,
		Files:     []Attachment{},
	}
}

// Attachment references an accepted upload kept in the attachment store.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Key  string `json:"key"`
}

// Identifiers are generated once per session and never change afterwards.
type Identifiers struct {
	NomorNUP          string `json:"nomorNUP"`
	TanggalDaftarNUP  string `json:"tanggalDaftarNUP"`
	TanggalReleaseNUP string `json:"tanggalReleaseNUP"`
}

type Step string

const (
	StepForm     Step = "form"
	StepThankYou Step = "thankyou"
)

type SubmitState string

const (
	StateIdle       SubmitState = "idle"
	StateValidating SubmitState = "validating"
	StateRejected   SubmitState = "rejected"
	StateSubmitting SubmitState = "submitting"
	StateDelivered  SubmitState = "delivered"
	StateFailed     SubmitState = "failed"
)

type Receipt struct {
	Name       string `json:"name"`
	Body       []byte `json:"body"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// Session is one pass through the NUP form, from first render to the thank-you screen.
type Session struct {
	ID          string            `json:"id"`
	Identifiers Identifiers       `json:"identifiers"`
	Record      FormRecord        `json:"record"`
	Step        Step              `json:"step"`
	State       SubmitState       `json:"state"`
	Errors      map[string]string `json:"errors,omitempty"`
	ServerError string            `json:"serverError,omitempty"`
	Receipt     *Receipt          `json:"receipt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
