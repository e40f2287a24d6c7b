package models

import (
	"hydrogen/pos-receipts/internal/derive"
	"hydrogen/pos-receipts/internal/templates"
)

// Receipt holds the display values of one record under one template, after
// every derivation rule has been applied. Values the template does not carry
// are left blank.
type Receipt struct {
	Index        int
	Merchant     string
	Address      string
	Terminal     string
	Date         string // as exported, or the template default
	DateTime     string // dd-mm-yyyy, hh:mm AM/PM
	ListDate     string // dd/mm/yyyy
	Customer     string
	CardType     string
	PaymentType  string
	PAN          string
	IssuerBank   string
	STAN         string
	RRN          string
	Amount       string
	ResponseCode string
	Message      string
	Expiry       string
	PINVerified  string
}

// Resolve applies the derivation rules to rec under def.
func Resolve(rec Record, def templates.Definition) Receipt {
	value := func(f templates.Field) string {
		return rec.Value(def, f)
	}
	withDefault := func(f templates.Field) string {
		return derive.Fallback(value(f), def.Default(f))
	}

	pan := value(templates.FieldPAN)
	date := value(templates.FieldDate)

	return Receipt{
		Index:        rec.Index,
		Merchant:     withDefault(templates.FieldMerchant),
		Address:      withDefault(templates.FieldAddress),
		Terminal:     value(templates.FieldTerminal),
		Date:         withDefault(templates.FieldDate),
		DateTime:     derive.FormatDateTime(date),
		ListDate:     derive.FormatDate(date),
		Customer:     value(templates.FieldCustomer),
		CardType:     derive.CardNetwork(value(templates.FieldCardType), pan),
		PaymentType:  withDefault(templates.FieldPaymentType),
		PAN:          pan,
		IssuerBank:   derive.IssuerBank(value(templates.FieldIssuerBank), pan),
		STAN:         value(templates.FieldSTAN),
		RRN:          value(templates.FieldRRN),
		Amount:       derive.FormatAmount(value(templates.FieldAmount)),
		ResponseCode: derive.ResponseCode(value(templates.FieldResponseCode)),
		Message:      derive.ResponseMessage(value(templates.FieldMessage)),
		Expiry:       value(templates.FieldExpiry),
		PINVerified:  value(templates.FieldPINVerified),
	}
}
