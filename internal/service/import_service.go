package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/oss"
	"github.com/subguard/subguard_go_server/internal/repository"
)

var (
	ErrEmptyCSV      = errors.New("csv file is empty")
	ErrMissingHeader = errors.New("csv header must include name and amount columns")
)

// ImportService loads subscriptions from an uploaded CSV. Rows are validated
// independently so one bad line never sinks the batch.
type ImportService struct {
	subRepo   *repository.SubscriptionRepository
	ossClient *oss.Client
	nowFn     func() time.Time
}

// NewImportService wires the importer. ossClient may be nil; the original
// upload is then not archived.
func NewImportService(subRepo *repository.SubscriptionRepository, ossClient *oss.Client) *ImportService {
	return &ImportService{
		subRepo:   subRepo,
		ossClient: ossClient,
		nowFn:     time.Now,
	}
}

// ImportCSV parses the file and creates one subscription per valid row.
func (s *ImportService) ImportCSV(userID int64, data []byte) (*dto.CSVImportResponse, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	// Rows with missing trailing columns are tolerated
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := indexColumns(header)
	if _, ok := columns["name"]; !ok {
		return nil, ErrMissingHeader
	}
	if _, ok := columns["amount"]; !ok {
		return nil, ErrMissingHeader
	}

	resp := &dto.CSVImportResponse{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			resp.Failed++
			resp.ErrorDetails = append(resp.ErrorDetails, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		sub, err := s.subscriptionFromRow(userID, columns, record)
		if err != nil {
			resp.Failed++
			resp.ErrorDetails = append(resp.ErrorDetails, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if err := s.subRepo.Create(sub); err != nil {
			resp.Failed++
			resp.ErrorDetails = append(resp.ErrorDetails, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		resp.Imported++
	}

	// Archive the upload for audit; a storage failure doesn't undo the import
	if s.ossClient != nil && resp.Imported > 0 {
		url, err := s.ossClient.UploadImportArchive(userID, data)
		if err != nil {
			log.Printf("failed to archive csv import for user %d: %v", userID, err)
		} else {
			resp.ArchiveURL = url
		}
	}

	return resp, nil
}

// indexColumns maps normalized header names to their position. "Billing Cycle",
// "billing_cycle" and "billingCycle" all land on "billing_cycle".
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeColumn(name)] = i
	}
	return columns
}

func normalizeColumn(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	switch name {
	case "billingcycle", "cycle":
		return "billing_cycle"
	case "nextbilling", "next_billing_date", "renewal_date":
		return "next_billing"
	case "paymentmethod":
		return "payment_method"
	}
	return name
}

func field(columns map[string]int, record []string, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (s *ImportService) subscriptionFromRow(userID int64, columns map[string]int, record []string) (*model.Subscription, error) {
	name := field(columns, record, "name")
	if name == "" {
		return nil, errors.New("name is required")
	}
	name = truncateRunes(name, 100)

	rawAmount := field(columns, record, "amount")
	amount, err := strconv.ParseFloat(strings.ReplaceAll(rawAmount, ",", ""), 64)
	if err != nil || amount <= 0 {
		return nil, fmt.Errorf("invalid amount %q", rawAmount)
	}

	cycle := model.CycleMonthly
	if raw := field(columns, record, "billing_cycle"); raw != "" {
		cycle = model.BillingCycle(strings.ToLower(raw))
		if !cycle.Valid() {
			return nil, fmt.Errorf("invalid billing cycle %q", raw)
		}
	}

	currency := model.CurrencyINR
	if raw := field(columns, record, "currency"); raw != "" {
		currency = model.Currency(strings.ToUpper(raw))
		if !currency.Valid() {
			return nil, fmt.Errorf("invalid currency %q", raw)
		}
	}

	category := "Other"
	if raw := field(columns, record, "category"); raw != "" {
		if !model.ValidCategory(raw) {
			return nil, fmt.Errorf("invalid category %q", raw)
		}
		category = raw
	}

	payment := model.PaymentOther
	if raw := field(columns, record, "payment_method"); raw != "" {
		payment = model.PaymentMethod(strings.ToLower(raw))
		if !payment.Valid() {
			return nil, fmt.Errorf("invalid payment method %q", raw)
		}
	}

	now := s.nowFn()
	nextBilling := model.NextBillingAfter(cycle, now)
	if raw := field(columns, record, "next_billing"); raw != "" {
		parsed, err := parseCSVDate(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid next_billing %q", raw)
		}
		nextBilling = parsed
	}

	merchant := field(columns, record, "merchant")
	if merchant == "" {
		merchant = name
	}
	if len(merchant) > 100 {
		merchant = merchant[:100]
	}

	return &model.Subscription{
		UserID:        userID,
		Name:          name,
		Category:      category,
		Merchant:      merchant,
		Amount:        amount,
		Currency:      currency,
		BillingCycle:  cycle,
		NextBilling:   nextBilling,
		Status:        model.SubStatusActive,
		StartDate:     now,
		AutoRenew:     true,
		PaymentMethod: payment,
		Notes:         field(columns, record, "notes"),
		IsRecurring:   true,
		Source:        model.SourceCSVUpload,
		Confidence:    1.0,
		UsagePattern:  model.UsageNone,
	}, nil
}

func parseCSVDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}
