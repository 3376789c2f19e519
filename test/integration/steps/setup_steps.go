package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cashback-engine/backend/internal/domain/entity"
	"github.com/cashback-engine/backend/internal/integration/persistence/model"
	"github.com/cashback-engine/backend/test/integration/mock"
)

func (t *testContext) theCurrentTimeIs(value string) error {
	instant, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", value, err)
	}
	t.clock.Set(instant)
	return nil
}

func (t *testContext) aCustomerExists(cpf, name, email string) error {
	firstName := name
	lastName := ""
	if idx := strings.IndexByte(name, ' '); idx > 0 {
		firstName = name[:idx]
		lastName = name[idx+1:]
	}
	t.directory.Register(mock.DirectoryCustomer{
		CPF:       cpf,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	})
	return nil
}

func (t *testContext) theCustomerIsBanned(cpf string) error {
	t.directory.Ban(cpf)
	return nil
}

// campaignSeed mirrors the campaign sync payload used in feature files.
type campaignSeed struct {
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Rules     []ruleSeed `json:"rules"`

	PercentCashback *string `json:"percent_cashback"`
	ValueCashback   *int64  `json:"value_cashback"`
	CashbackLimit   *int64  `json:"cashback_limit"`
	MinSaleValue    *int64  `json:"min_sale_value"`
	MaxProductsCart *int64  `json:"max_products_cart"`

	SalesChannels  []string      `json:"sales_channels"`
	Subsidiaries   []string      `json:"subsidiaries"`
	PaymentMethods []paymentSeed `json:"payment_methods"`

	DaysToCreditPdv  int `json:"days_to_credit_pdv"`
	DaysToCreditEcom int `json:"days_to_credit_ecom"`
	DaysToRescue     int `json:"days_to_rescue"`

	CPFParticipationLimit *int64 `json:"cpf_participation_limit"`
}

type ruleSeed struct {
	Group     string `json:"group"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
	Category3 string `json:"category3"`
	Category4 string `json:"category4"`
	Gender    string `json:"gender"`
	ColorCode string `json:"color_code"`
	Model     string `json:"model"`
	Size      string `json:"size"`
}

type paymentSeed struct {
	Type  string   `json:"type"`
	Flags []string `json:"flags"`
}

func (t *testContext) theFollowingCampaignIsActive(doc *godog.DocString) error {
	var seed campaignSeed
	if err := json.Unmarshal([]byte(doc.Content), &seed); err != nil {
		return fmt.Errorf("invalid campaign seed: %w", err)
	}

	rules := make([]entity.Rule, len(seed.Rules))
	for i, r := range seed.Rules {
		rules[i] = entity.Rule{
			Group:     r.Group,
			Category1: r.Category1,
			Category2: r.Category2,
			Category3: r.Category3,
			Category4: r.Category4,
			Gender:    r.Gender,
			ColorCode: r.ColorCode,
			Model:     r.Model,
			Size:      r.Size,
		}
	}
	payments := make([]entity.AllowedPaymentMethod, len(seed.PaymentMethods))
	for i, p := range seed.PaymentMethods {
		payments[i] = entity.AllowedPaymentMethod{
			Type:  entity.PaymentMethodType(p.Type),
			Flags: p.Flags,
		}
	}

	var percent *decimal.Decimal
	if seed.PercentCashback != nil {
		value, err := decimal.NewFromString(*seed.PercentCashback)
		if err != nil {
			return fmt.Errorf("invalid percent_cashback: %w", err)
		}
		percent = &value
	}

	status := seed.Status
	if status == "" {
		status = string(entity.CampaignStatusActive)
	}

	campaign := &model.CampaignModel{
		ID:        uuid.New(),
		Code:      seed.Code,
		Name:      seed.Name,
		Status:    status,
		StartDate: seed.StartDate,
		EndDate:   seed.EndDate,
		Rules:     marshalSeed(rules),

		PercentCashback: percent,
		ValueCashback:   seed.ValueCashback,
		CashbackLimit:   seed.CashbackLimit,
		MinSaleValue:    seed.MinSaleValue,
		MaxProductsCart: seed.MaxProductsCart,

		SalesChannels:  marshalSeed(seed.SalesChannels),
		Subsidiaries:   marshalSeed(seed.Subsidiaries),
		PaymentMethods: marshalSeed(payments),

		DaysToCreditPdv:  seed.DaysToCreditPdv,
		DaysToCreditEcom: seed.DaysToCreditEcom,
		DaysToRescue:     seed.DaysToRescue,

		CPFParticipationLimit: seed.CPFParticipationLimit,

		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	return t.db.DbConn.Create(campaign).Error
}

func marshalSeed(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal seed value: %v", err))
	}
	return string(raw)
}

func (t *testContext) anAvailableCashbackRecordExists(invoiceKey, cpf string, amount int, expireAt string) error {
	expireDate, err := time.Parse(time.RFC3339, expireAt)
	if err != nil {
		return fmt.Errorf("invalid expire date %q: %w", expireAt, err)
	}

	now := t.clock.Now()
	creditDate := now.AddDate(0, 0, -10)
	sale := entity.NewSale(cpf, invoiceKey, entity.ChannelPDV, "store-001", nil, nil, creditDate)
	sale.Status = entity.SaleStatusAvailable
	sale.TotalCashback = int64(amount)
	sale.AvailableCashback = int64(amount)
	sale.CreditDate = &creditDate
	sale.ExpireDate = &expireDate

	return t.db.DbConn.Create(model.SaleFromEntity(sale)).Error
}

func (t *testContext) theDbShouldContainRowsInTheTable(expected int, table string) error {
	var count int64
	if err := t.db.DbConn.Table(table).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count rows in %q: %w", table, err)
	}
	if count != int64(expected) {
		return fmt.Errorf("expected %d rows in %q, got %d", expected, table, count)
	}
	return nil
}

func (t *testContext) notificationsShouldBeQueued(expected int) error {
	var count int64
	if err := t.db.DbConn.Model(&model.NotificationQueueModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count notifications: %w", err)
	}
	if count != int64(expected) {
		return fmt.Errorf("expected %d queued notifications, got %d", expected, count)
	}
	return nil
}

func (t *testContext) theNotificationWorkerDelivers(expected int) error {
	t.worker.ProcessNow(context.Background())
	if got := len(t.sender.SentNotifications); got != expected {
		return fmt.Errorf("expected %d delivered notifications, got %d", expected, got)
	}
	return nil
}
