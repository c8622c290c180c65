package services

import (
	"errors"
	"testing"

	"nup_registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRupiah(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"5000000":      "5.000.000",
		"123":          "123",
		"1234":         "1.234",
		"Rp 1,500abc":  "1.500",
		"abc":          "",
		"0005":         "0.005",
		"12345678901":  "12.345.678.901",
		"5.000.000,00": "500.000.000",
	}
	for input, want := range cases {
		assert.Equal(t, want, FormatRupiah(input), "input %q", input)
	}
}

func TestFormatRupiahIsIdempotent(t *testing.T) {
	for _, formatted := range []string{"", "1", "999", "1.000", "5.000.000", "12.345.678"} {
		assert.Equal(t, formatted, FormatRupiah(formatted))
		assert.Equal(t, FormatRupiah(formatted), FormatRupiah(FormatRupiah(formatted)))
	}
}

func TestApplyUpdatesOnlyTheNamedField(t *testing.T) {
	forms := NewFormService()
	record := models.NewFormRecord()
	record.Nama = "Budi"
	before := record

	require.NoError(t, forms.Apply(&record, models.FieldEmail, "budi@example.com"))

	assert.Equal(t, "budi@example.com", record.Email)
	record.Email = before.Email
	assert.Equal(t, before, record)
}

func TestApplyTransforms(t *testing.T) {
	forms := NewFormService()
	record := models.NewFormRecord()

	require.NoError(t, forms.Apply(&record, models.FieldJumlahNUP, "5000000"))
	require.NoError(t, forms.Apply(&record, models.FieldCaptcha, "setuju"))
	require.NoError(t, forms.Apply(&record, models.FieldSetujuKetentuan, "true"))
	require.NoError(t, forms.Apply(&record, models.FieldCaraBayar, "Transfer"))
	require.NoError(t, forms.Apply(&record, models.FieldKehadiran, string(models.AttendanceProxy)))

	assert.Equal(t, "5.000.000", record.JumlahNUP)
	assert.Equal(t, "SETUJU", record.Captcha)
	assert.True(t, record.SetujuKetentuan)
	assert.Equal(t, models.PaymentTransfer, record.CaraBayar)
	assert.Equal(t, models.AttendanceProxy, record.Kehadiran)
}

func TestApplyDropsValuesOutsideTheField(t *testing.T) {
	forms := NewFormService()
	record := models.NewFormRecord()

	require.NoError(t, forms.Apply(&record, models.FieldCaraBayar, "Kredit"))
	require.NoError(t, forms.Apply(&record, models.FieldKehadiran, "Mungkin"))
	require.NoError(t, forms.Apply(&record, models.FieldSetujuKetentuan, "yes please"))

	assert.Equal(t, models.PaymentTunai, record.CaraBayar)
	assert.Equal(t, models.AttendanceSelf, record.Kehadiran)
	assert.False(t, record.SetujuKetentuan)
}

func TestApplyUnknownField(t *testing.T) {
	record := models.NewFormRecord()
	err := NewFormService().Apply(&record, "nomorNUP", "NUP-1")
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestSelectAttachments(t *testing.T) {
	const mib = 1024 * 1024
	candidates := []FileCandidate{
		{Name: "ktp.pdf", Type: "application/pdf", Size: 12 * mib},
		{Name: "ttd.png", Type: "image/png", Size: 1 * mib},
		{Name: "notes.txt", Type: "text/plain", Size: 10},
		{Name: "SCAN.JPG", Type: "", Size: 2 * mib},
		{Name: "scan", Type: "image/jpeg", Size: 3 * mib},
		{Name: "limit.pdf", Type: "application/pdf", Size: MaxAttachmentSize},
		{Name: "over.pdf", Type: "application/pdf", Size: MaxAttachmentSize + 1},
	}

	accepted := NewFormService().SelectAttachments(candidates)

	names := make([]string, 0, len(accepted))
	for _, f := range accepted {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"ttd.png", "SCAN.JPG", "scan", "limit.pdf"}, names)
}

func TestSelectAttachmentsEmpty(t *testing.T) {
	assert.Empty(t, NewFormService().SelectAttachments(nil))
}
