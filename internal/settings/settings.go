package settings

import (
	"strconv"
	"strings"

	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/shopspring/decimal"
)

// Settings is the single admin-editable document. It is saved wholesale.
type Settings struct {
	Company           CompanyInfo         `json:"company"`
	Commission        CommissionRates     `json:"commission"`
	Notifications     NotificationToggles `json:"notifications"`
	WhatsAppTemplates MessageTemplates    `json:"whatsapp_templates"`
}

type CompanyInfo struct {
	Name    string `json:"name" validate:"max=120"`
	Phone   string `json:"phone" validate:"max=40"`
	Email   string `json:"email" validate:"omitempty,email"`
	PixKey  string `json:"pix_key" validate:"max=140"`
	Address string `json:"address" validate:"max=240"`
}

// CommissionRates are percentages applied to paid sales.
type CommissionRates struct {
	Promoter decimal.Decimal `json:"promoter"`
	Reseller decimal.Decimal `json:"reseller"`
}

type NotificationToggles struct {
	AutoProcessPendingSales bool `json:"auto_process_pending_sales"`
	AutoSendBolaoCards      bool `json:"auto_send_bolao_cards"`
	TelegramAlerts          bool `json:"telegram_alerts"`
}

// MessageTemplates accept the placeholders {nome}, {cotas}, {grupo} and {edicao}.
type MessageTemplates struct {
	BolaoCards     string `json:"bolao_cards" validate:"required,max=1000"`
	IndividualCard string `json:"individual_card" validate:"required,max=1000"`
}

func Defaults() Settings {
	return Settings{
		Company: CompanyInfo{Name: "Cartela Premiada"},
		Commission: CommissionRates{
			Promoter: decimal.NewFromInt(10),
			Reseller: decimal.NewFromInt(15),
		},
		Notifications: NotificationToggles{
			AutoProcessPendingSales: true,
			AutoSendBolaoCards:      true,
			TelegramAlerts:          false,
		},
		WhatsAppTemplates: MessageTemplates{
			BolaoCards:     "Olá {nome}! Suas cotas do bolão da edição {edicao}: {cotas} (grupo {grupo}). Boa sorte!",
			IndividualCard: "Olá {nome}! Segue sua cartela da edição {edicao}. Boa sorte!",
		},
	}
}

// RateFor returns the default commission percentage for a seller kind.
func (s Settings) RateFor(kind enums.SellerKind) decimal.Decimal {
	if kind == enums.SellerKindReseller {
		return s.Commission.Reseller
	}
	return s.Commission.Promoter
}

// TemplateVars fill the placeholders of a WhatsApp message template.
type TemplateVars struct {
	Name    string
	Quotas  string
	Group   int
	Edition int
}

// Render substitutes the known placeholders; unknown ones are left as typed.
func Render(template string, vars TemplateVars) string {
	group := ""
	if vars.Group > 0 {
		group = strconv.Itoa(vars.Group)
	}
	edition := ""
	if vars.Edition > 0 {
		edition = strconv.Itoa(vars.Edition)
	}
	return strings.NewReplacer(
		"{nome}", vars.Name,
		"{cotas}", vars.Quotas,
		"{grupo}", group,
		"{edicao}", edition,
	).Replace(template)
}
