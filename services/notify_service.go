package services

import (
	"nup_registration/models"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Notifier tells the marketing team about a delivered registration.
type Notifier interface {
	Notify(session *models.Session) error
}

// DiscordNotifier posts to a channel webhook; no bot token is needed.
type DiscordNotifier struct {
	session   *discordgo.Session
	webhookID string
	token     string
}

func NewDiscordNotifier(webhookID, token string) (*DiscordNotifier, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}
	return &DiscordNotifier{session: session, webhookID: webhookID, token: token}, nil
}

func (n *DiscordNotifier) Notify(s *models.Session) error {
	record := s.Record
	amount := record.JumlahNUP
	if amount == "" {
		amount = "-"
	}

	_, err := n.session.WebhookExecute(n.webhookID, n.token, false, &discordgo.WebhookParams{
		Username: "NUP Registration",
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "NUP baru: " + s.Identifiers.NomorNUP,
				Description: "Segera hubungi pemesan untuk langkah pembayaran.",
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Nama", Value: record.Nama, Inline: true},
					{Name: "No. HP/WA", Value: record.Hp, Inline: true},
					{Name: "Email", Value: record.Email, Inline: true},
					{Name: "Jumlah NUP (Rp)", Value: amount, Inline: true},
					{Name: "Cara Pembayaran", Value: string(record.CaraBayar), Inline: true},
					{Name: "Kehadiran", Value: string(record.Kehadiran), Inline: true},
				},
				Footer: &discordgo.MessageEmbedFooter{
					Text: "Tanggal daftar " + s.Identifiers.TanggalDaftarNUP,
				},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute discord webhook")
	}
	return nil
}
