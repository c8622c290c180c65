package services

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"nup_registration/models"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// MaxAttachmentSize is the largest accepted upload, 10 MiB.
const MaxAttachmentSize int64 = 10 * 1024 * 1024

var (
	ErrUnknownField = errors.New("unknown form field")

	AcceptedMediaTypes = []string{"image/jpeg", "image/png", "application/pdf"}
	acceptedExtension  = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|pdf)$`)
	nonDigit           = regexp.MustCompile(`[^0-9]`)
)

// FileCandidate is a file offered for the attachment list, before filtering.
type FileCandidate struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

type FormService struct{}

func NewFormService() *FormService {
	return &FormService{}
}

// Apply replaces a single field of the record. Values that do not fit the
// field (unknown enum options, unparsable booleans) are dropped and leave
// the field as it was.
func (s *FormService) Apply(record *models.FormRecord, field, value string) error {
	switch field {
	case models.FieldNama:
		record.Nama = value
	case models.FieldKtp:
		record.Ktp = value
	case models.FieldAlamat:
		record.Alamat = value
	case models.FieldHp:
		record.Hp = value
	case models.FieldEmail:
		record.Email = value
	case models.FieldJumlahNUP:
		record.JumlahNUP = FormatRupiah(value)
	case models.FieldCaraBayar:
		if method := models.PaymentMethod(value); lo.Contains(models.PaymentMethods, method) {
			record.CaraBayar = method
		}
	case models.FieldKehadiran:
		if attendance := models.Attendance(value); lo.Contains(models.Attendances, attendance) {
			record.Kehadiran = attendance
		}
	case models.FieldSetujuKetentuan:
		if agreed, err := strconv.ParseBool(value); err == nil {
			record.SetujuKetentuan = agreed
		}
	case models.FieldCaptcha:
		record.Captcha = strings.ToUpper(value)
	default:
		return errors.Wrapf(ErrUnknownField, "%q", field)
	}
	return nil
}

// SelectAttachments keeps the candidates that may be attached. The result
// replaces the whole attachment list.
func (s *FormService) SelectAttachments(candidates []FileCandidate) []FileCandidate {
	return lo.Filter(candidates, func(f FileCandidate, _ int) bool {
		return AcceptableAttachment(f.Name, f.Type, f.Size)
	})
}

func AcceptableAttachment(name, mediaType string, size int64) bool {
	okType := lo.Contains(AcceptedMediaTypes, mediaType) || acceptedExtension.MatchString(name)
	return okType && size <= MaxAttachmentSize
}

// FormatRupiah keeps the digits of value and groups them by thousands with dots.
func FormatRupiah(value string) string {
	digits := nonDigit.ReplaceAllString(value, "")
	if digits == "" {
		return ""
	}

	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	var b strings.Builder
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
