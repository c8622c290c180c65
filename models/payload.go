package models

const (
	FormTitle       = "Release Pembelian (Nomor Urut Pemesanan – NUP)"
	FormDescription = "Formulir ini digunakan untuk pendaftaran dan pencatatan NUP (Nomor Urut Pemesanan) pembelian unit di Perumahan Griya Land Sumbang. Harap isi data dengan benar."
	BatalMembeli    = "Dana NUP tidak dikembalikan (hangus)"
)

// Payload is the record sent to the spreadsheet web app and kept as the JSON receipt.
// Field names are part of the contract with the Apps Script endpoint.
type Payload struct {
	FormTitle       string           `json:"formTitle"`
	FormDescription string           `json:"formDescription"`
	Timestamp       string           `json:"timestamp"`
	Identitas       IdentitySection  `json:"bagian1_identitas"`
	InfoNUP         NUPInfoSection   `json:"bagian2_infoNUP"`
	Ketentuan       TermsSection     `json:"bagian3_ketentuan"`
	TTD             SignatureSection `json:"bagian4_ttd"`
}

type IdentitySection struct {
	Nama           string `json:"nama"`
	NoKTP          string `json:"noKTP"`
	AlamatDomisili string `json:"alamatDomisili"`
	NoHPWA         string `json:"noHP_WA"`
	Email          string `json:"email"`
}

type NUPInfoSection struct {
	NomorNUP              string        `json:"nomorNUP"`
	TanggalDaftarNUP      string        `json:"tanggalDaftarNUP"`
	JumlahNUPDibayarkanRp string        `json:"jumlahNUPDibayarkan_Rp"`
	CaraPembayaranNUP     PaymentMethod `json:"caraPembayaranNUP"`
	TanggalReleaseNUP     string        `json:"tanggalReleaseNUP"`
}

type TermsSection struct {
	KonfirmasiKehadiran   Attendance `json:"konfirmasiKehadiran"`
	BatalMembeli          string     `json:"batalMembeli"`
	PernyataanPersetujuan bool       `json:"pernyataanPersetujuan"`
}

type SignatureSection struct {
	FileCount   int           `json:"fileCount"`
	FileNames   []string      `json:"fileNames"`
	FilesBase64 []EncodedFile `json:"filesBase64"`
}

// EncodedFile carries a whole attachment as base64 text.
type EncodedFile struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Base64 string `json:"base64"`
}
