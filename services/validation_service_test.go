package services

import (
	"testing"

	"nup_registration/models"

	"github.com/stretchr/testify/assert"
)

func validRecord() models.FormRecord {
	record := models.NewFormRecord()
	record.Nama = "Siti Rahma"
	record.Ktp = "3302010101010001"
	record.Alamat = "Jl. Raya Sumbang No. 1"
	record.Hp = "081234567890"
	record.Email = "siti@example.com"
	record.JumlahNUP = "5.000.000"
	record.SetujuKetentuan = true
	record.Captcha = "SETUJU"
	return record
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	assert.Empty(t, NewFormValidator().Validate(validRecord()))
}

func TestValidateReportsOnlyTheMissingField(t *testing.T) {
	cases := map[string]func(r *models.FormRecord){
		models.FieldNama:            func(r *models.FormRecord) { r.Nama = "   " },
		models.FieldKtp:             func(r *models.FormRecord) { r.Ktp = "" },
		models.FieldAlamat:          func(r *models.FormRecord) { r.Alamat = "\n\t" },
		models.FieldHp:              func(r *models.FormRecord) { r.Hp = " " },
		models.FieldEmail:           func(r *models.FormRecord) { r.Email = "" },
		models.FieldSetujuKetentuan: func(r *models.FormRecord) { r.SetujuKetentuan = false },
		models.FieldCaptcha:         func(r *models.FormRecord) { r.Captcha = "" },
	}

	v := NewFormValidator()
	for field, clear := range cases {
		t.Run(field, func(t *testing.T) {
			record := validRecord()
			clear(&record)

			errs := v.Validate(record)

			assert.Len(t, errs, 1)
			assert.Contains(t, errs, field)
		})
	}
}

func TestValidateEmptyRecordListsEveryRequiredField(t *testing.T) {
	errs := NewFormValidator().Validate(models.NewFormRecord())

	assert.Equal(t, map[string]string{
		models.FieldNama:            "Wajib diisi",
		models.FieldKtp:             "Wajib diisi",
		models.FieldAlamat:          "Wajib diisi",
		models.FieldHp:              "Wajib diisi",
		models.FieldEmail:           "Wajib diisi",
		models.FieldSetujuKetentuan: "Anda harus menyetujui ketentuan",
		models.FieldCaptcha:         "Ketik persis: SETUJU",
	}, errs)
}

func TestValidatePhone(t *testing.T) {
	v := NewFormValidator()
	cases := map[string]bool{
		"081234567890":     true,
		"+6281234567890":   true,
		"0812-3456-7890":   true,
		"0812 3456 7890":   true,
		"12345":            false,
		"+1234567890123":   false,
		"0812":             false,
		"0812345678901234": false,
	}
	for phone, ok := range cases {
		record := validRecord()
		record.Hp = phone
		errs := v.Validate(record)
		if ok {
			assert.NotContains(t, errs, models.FieldHp, "phone %q", phone)
		} else {
			assert.Equal(t, "Nomor HP tidak valid", errs[models.FieldHp], "phone %q", phone)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	v := NewFormValidator()

	record := validRecord()
	record.Email = "a@b.com"
	assert.Empty(t, v.Validate(record))

	record.Email = "not-an-email"
	assert.Equal(t, map[string]string{models.FieldEmail: "Email tidak valid"}, v.Validate(record))
}

func TestValidateAmount(t *testing.T) {
	v := NewFormValidator()
	cases := map[string]bool{
		"":          true,
		"500":       true,
		"5.000.000": true,
		"5000000":   false,
		"5.00":      false,
		"1.2345":    false,
	}
	for amount, ok := range cases {
		record := validRecord()
		record.JumlahNUP = amount
		errs := v.Validate(record)
		if ok {
			assert.Empty(t, errs, "amount %q", amount)
		} else {
			assert.Equal(t, "Gunakan angka (contoh: 5.000.000)", errs[models.FieldJumlahNUP], "amount %q", amount)
		}
	}
}

func TestValidateConfirmationPhrase(t *testing.T) {
	v := NewFormValidator()

	record := validRecord()
	record.Captcha = " SETUJU "
	assert.Empty(t, v.Validate(record))

	record.Captcha = "setuju"
	assert.Contains(t, v.Validate(record), models.FieldCaptcha)

	record.Captcha = "SETUJU!"
	assert.Contains(t, v.Validate(record), models.FieldCaptcha)
}
