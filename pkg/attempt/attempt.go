// Package attempt defines the payment attempt record, the field table that
// fixes its column layout, and the factory that generates random records.
package attempt

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/golang-sql/civil"
)

// PaymentAttempt is one attempt to collect a payment. Pointer fields are
// optional; nil means absent.
type PaymentAttempt struct {
	PaymentID                              string              `json:"payment_id"`
	MerchantID                             string              `json:"merchant_id"`
	AttemptID                              string              `json:"attempt_id"`
	Status                                 AttemptStatus       `json:"status"`
	Amount                                 int64               `json:"amount"`
	Currency                               *Currency           `json:"currency"`
	SaveToLocker                           *bool               `json:"save_to_locker"`
	Connector                              *string             `json:"connector"`
	ErrorMessage                           *string             `json:"error_message"`
	OfferAmount                            *int64              `json:"offer_amount"`
	SurchargeAmount                        *int64              `json:"surcharge_amount"`
	TaxAmount                              *int64              `json:"tax_amount"`
	PaymentMethodID                        *string             `json:"payment_method_id"`
	PaymentMethod                          *PaymentMethod      `json:"payment_method"`
	ConnectorTransactionID                 *string             `json:"connector_transaction_id"`
	CaptureMethod                          *CaptureMethod      `json:"capture_method"`
	CaptureOn                              *civil.DateTime     `json:"capture_on"`
	Confirm                                bool                `json:"confirm"`
	AuthenticationType                     *AuthenticationType `json:"authentication_type"`
	CreatedAt                              civil.DateTime      `json:"created_at"`
	ModifiedAt                             civil.DateTime      `json:"modified_at"`
	LastSynced                             *civil.DateTime     `json:"last_synced"`
	CancellationReason                     *string             `json:"cancellation_reason"`
	AmountToCapture                        *int64              `json:"amount_to_capture"`
	MandateID                              *string             `json:"mandate_id"`
	BrowserInfo                            *json.RawMessage    `json:"browser_info"`
	ErrorCode                              *string             `json:"error_code"`
	PaymentToken                           *string             `json:"payment_token"`
	ConnectorMetadata                      *json.RawMessage    `json:"connector_metadata"`
	PaymentExperience                      *PaymentExperience  `json:"payment_experience"`
	PaymentMethodType                      *PaymentMethodType  `json:"payment_method_type"`
	PaymentMethodData                      *json.RawMessage    `json:"payment_method_data"`
	BusinessSubLabel                       *string             `json:"business_sub_label"`
	StraightThroughAlgorithm               *json.RawMessage    `json:"straight_through_algorithm"`
	PreprocessingStepID                    *string             `json:"preprocessing_step_id"`
	MandateDetails                         *MandateDataType    `json:"mandate_details"`
	ErrorReason                            *string             `json:"error_reason"`
	MultipleCaptureCount                   *int16              `json:"multiple_capture_count"`
	ConnectorResponseReferenceID           *string             `json:"connector_response_reference_id"`
	AmountCapturable                       int64               `json:"amount_capturable"`
	UpdatedBy                              string              `json:"updated_by"`
	MerchantConnectorID                    *string             `json:"merchant_connector_id"`
	AuthenticationData                     *json.RawMessage    `json:"authentication_data"`
	EncodedData                            *string             `json:"encoded_data"`
	UnifiedCode                            *string             `json:"unified_code"`
	UnifiedMessage                         *string             `json:"unified_message"`
	NetAmount                              *int64              `json:"net_amount"`
	ExternalThreeDSAuthenticationAttempted *bool               `json:"external_three_ds_authentication_attempted"`
	AuthenticationConnector                *string             `json:"authentication_connector"`
	AuthenticationID                       *string             `json:"authentication_id"`
	MandateData                            *MandateDetails     `json:"mandate_data"`
	FingerprintID                          *string             `json:"fingerprint_id"`
	PaymentMethodBillingAddressID          *string             `json:"payment_method_billing_address_id"`
	ChargeID                               *string             `json:"charge_id"`
	ClientSource                           *string             `json:"client_source"`
	ClientVersion                          *string             `json:"client_version"`
	CustomerAcceptance                     *json.RawMessage    `json:"customer_acceptance"`
	ProfileID                              *string             `json:"profile_id"`
}

// MandateAmountData bounds what a mandate may charge and when.
type MandateAmountData struct {
	Amount    int64            `json:"amount"`
	Currency  Currency         `json:"currency"`
	StartDate *civil.DateTime  `json:"start_date"`
	EndDate   *civil.DateTime  `json:"end_date"`
	Metadata  *json.RawMessage `json:"metadata"`
}

// MandateDetails links an attempt to a mandate being updated.
type MandateDetails struct {
	UpdateMandateID *string `json:"update_mandate_id"`
}

// MandateKind tags the arm of a MandateDataType.
type MandateKind string

const (
	MandateSingleUse MandateKind = "SingleUse"
	MandateMultiUse  MandateKind = "MultiUse"
)

// MandateDataType is either SingleUse, which always carries amount data, or
// MultiUse, whose amount data is optional.
//
// It encodes as a single-key JSON object named after the arm:
// {"SingleUse":{...}}, {"MultiUse":{...}} or {"MultiUse":null}.
type MandateDataType struct {
	Kind   MandateKind
	Amount *MandateAmountData
}

// ErrMissingMandateAmount is returned when a SingleUse mandate has no amount data.
var ErrMissingMandateAmount = errors.New("single use mandate requires amount data")

// SingleUse builds a single-use mandate.
func SingleUse(amount MandateAmountData) MandateDataType {
	return MandateDataType{Kind: MandateSingleUse, Amount: &amount}
}

// MultiUse builds a multi-use mandate; amount may be nil.
func MultiUse(amount *MandateAmountData) MandateDataType {
	return MandateDataType{Kind: MandateMultiUse, Amount: amount}
}

func (m MandateDataType) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MandateSingleUse:
		if m.Amount == nil {
			return nil, ErrMissingMandateAmount
		}
	case MandateMultiUse:
	default:
		return nil, fmt.Errorf("unknown mandate kind %q", string(m.Kind))
	}
	return json.Marshal(map[MandateKind]*MandateAmountData{m.Kind: m.Amount})
}

func (m *MandateDataType) UnmarshalJSON(b []byte) error {
	var raw map[MandateKind]*MandateAmountData
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("mandate data type: expected exactly one arm, got %d", len(raw))
	}
	for kind, amount := range raw {
		switch kind {
		case MandateSingleUse:
			if amount == nil {
				return ErrMissingMandateAmount
			}
		case MandateMultiUse:
		default:
			return fmt.Errorf("unknown mandate kind %q", string(kind))
		}
		m.Kind, m.Amount = kind, amount
	}
	return nil
}
