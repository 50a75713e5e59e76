package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
)

const activationSubject = "Kode Aktivasi NutriScan Premium Anda"

var activationBody = template.Must(template.New("activation").Parse(`============================================
NUTRISCAN PREMIUM AKTIVASI
============================================

Halo {{.CustomerName}}!

Terima kasih telah membeli {{.ProductName}} melalui TikTok Shop!

KODE AKTIVASI ANDA: {{.ActivationCode}}
Berlaku hingga: {{.ValidUntil}}

Cara menggunakan:
1. Buka aplikasi NutriScan
2. Masuk ke halaman Premium
3. Masukkan kode aktivasi: {{.ActivationCode}}
4. Nikmati fitur premium selama 1 bulan!

Butuh bantuan? Hubungi admin di WhatsApp

============================================
`))

type messageView struct {
	CustomerName   string
	ProductName    string
	ActivationCode string
	ValidUntil     string
}

// RenderActivation returns the subject and plain-text body sent to the customer.
func RenderActivation(n activation.Notification) (string, string, error) {
	product := n.ProductName
	if product == "" {
		product = "NutriScan Premium"
	}
	var buf bytes.Buffer
	err := activationBody.Execute(&buf, messageView{
		CustomerName:   n.CustomerName,
		ProductName:    product,
		ActivationCode: n.ActivationCode,
		ValidUntil:     indonesianDate(n.ExpiresAt),
	})
	if err != nil {
		return "", "", fmt.Errorf("rendering activation message: %w", err)
	}
	return activationSubject, buf.String(), nil
}

// indonesianDate renders d/m/yyyy as the id-ID locale does.
func indonesianDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}
