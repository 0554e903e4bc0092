package attempt

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"
	"github.com/golang-sql/civil"

	"github.com/TFMV/attemptgen/pkg/randr"
)

// Kind is the storage kind of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt64
	KindInt16
	KindBool
	KindTimestamp
	KindEnum
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindInt16:
		return "int16"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	case KindEnum:
		return "enum"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Native reports whether values of this kind are bound as-is rather than as
// canonical text.
func (k Kind) Native() bool {
	switch k {
	case KindString, KindInt64, KindInt16, KindBool:
		return true
	}
	return false
}

// ArrowType is the column type a store sees. Timestamps, enums and JSON are
// all carried as their canonical text.
func (k Kind) ArrowType() arrow.DataType {
	switch k {
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindInt16:
		return arrow.PrimitiveTypes.Int16
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// Field is one row of the field table: a column and how its value is produced
// and read back from a PaymentAttempt.
type Field struct {
	Index    int
	Column   string
	Kind     Kind
	Optional bool
	// Canonical is the default variant of an enum column.
	Canonical string

	generate func(r *randr.Rand, p randr.EnumPolicy, a *PaymentAttempt)
	value    func(a *PaymentAttempt) (any, bool)
}

// Value returns the field's value in a and whether it is present. Present
// optionals are dereferenced; mandatory fields are always present.
func (f Field) Value(a *PaymentAttempt) (any, bool) {
	return f.value(a)
}

type rule[T any] func(p randr.EnumPolicy) randr.Generator[T]

func always[T any](g randr.Generator[T]) rule[T] {
	return func(randr.EnumPolicy) randr.Generator[T] { return g }
}

func enum[E ~string](canonical E, variants []E) rule[E] {
	return func(p randr.EnumPolicy) randr.Generator[E] {
		return randr.Enum(p, canonical, variants)
	}
}

func required[T any](column string, kind Kind, gen rule[T], get func(*PaymentAttempt) *T) Field {
	return Field{
		Column: column,
		Kind:   kind,
		generate: func(r *randr.Rand, p randr.EnumPolicy, a *PaymentAttempt) {
			*get(a) = randr.Generate(r, gen(p))
		},
		value: func(a *PaymentAttempt) (any, bool) {
			return *get(a), true
		},
	}
}

func optional[T any](column string, kind Kind, gen rule[T], get func(*PaymentAttempt) **T) Field {
	return Field{
		Column:   column,
		Kind:     kind,
		Optional: true,
		generate: func(r *randr.Rand, p randr.EnumPolicy, a *PaymentAttempt) {
			*get(a) = randr.Generate(r, randr.Optional(gen(p)))
		},
		value: func(a *PaymentAttempt) (any, bool) {
			v := *get(a)
			if v == nil {
				return nil, false
			}
			return *v, true
		},
	}
}

func canonical[E ~string](f Field, v E) Field {
	f.Canonical = string(v)
	return f
}

var (
	str       = always(randr.String())
	i64       = always(randr.Int64())
	i16       = always(randr.Int16())
	boolean   = always(randr.Bool())
	timestamp = always(randr.Timestamp())
	payload   = always(randr.Payload())
)

func amountData(p randr.EnumPolicy) randr.Generator[MandateAmountData] {
	return randr.Func[MandateAmountData](func(r *randr.Rand) MandateAmountData {
		return MandateAmountData{
			Amount:    randr.Generate(r, randr.Int64()),
			Currency:  randr.Generate(r, randr.Enum(p, CurrencyUSD, Currencies)),
			StartDate: randr.Generate(r, randr.Optional(randr.Timestamp())),
			EndDate:   randr.Generate(r, randr.Optional(randr.Timestamp())),
			Metadata:  randr.Generate(r, randr.Optional(randr.Payload())),
		}
	})
}

// mandateType flips the arm coin first: heads is MultiUse, tails SingleUse.
func mandateType(p randr.EnumPolicy) randr.Generator[MandateDataType] {
	amount := amountData(p)
	multi := randr.Func[MandateDataType](func(r *randr.Rand) MandateDataType {
		return MultiUse(randr.Generate(r, randr.Optional(amount)))
	})
	single := randr.Func[MandateDataType](func(r *randr.Rand) MandateDataType {
		return SingleUse(randr.Generate(r, amount))
	})
	return randr.OneOf[MandateDataType](multi, single)
}

func mandateDetails(randr.EnumPolicy) randr.Generator[MandateDetails] {
	return randr.Func[MandateDetails](func(r *randr.Rand) MandateDetails {
		return MandateDetails{UpdateMandateID: randr.Generate(r, randr.Optional(randr.String()))}
	})
}

// NumColumns is the width of the payment attempt table.
const NumColumns = 58

var fields = index([]Field{
	required("payment_id", KindString, str, func(a *PaymentAttempt) *string { return &a.PaymentID }),
	required("merchant_id", KindString, str, func(a *PaymentAttempt) *string { return &a.MerchantID }),
	required("attempt_id", KindString, str, func(a *PaymentAttempt) *string { return &a.AttemptID }),
	canonical(required("status", KindEnum, enum(StatusStarted, AttemptStatuses), func(a *PaymentAttempt) *AttemptStatus { return &a.Status }), StatusStarted),
	required("amount", KindInt64, i64, func(a *PaymentAttempt) *int64 { return &a.Amount }),
	canonical(optional("currency", KindEnum, enum(CurrencyUSD, Currencies), func(a *PaymentAttempt) **Currency { return &a.Currency }), CurrencyUSD),
	optional("save_to_locker", KindBool, boolean, func(a *PaymentAttempt) **bool { return &a.SaveToLocker }),
	optional("connector", KindString, str, func(a *PaymentAttempt) **string { return &a.Connector }),
	optional("error_message", KindString, str, func(a *PaymentAttempt) **string { return &a.ErrorMessage }),
	optional("offer_amount", KindInt64, i64, func(a *PaymentAttempt) **int64 { return &a.OfferAmount }),
	optional("surcharge_amount", KindInt64, i64, func(a *PaymentAttempt) **int64 { return &a.SurchargeAmount }),
	optional("tax_amount", KindInt64, i64, func(a *PaymentAttempt) **int64 { return &a.TaxAmount }),
	optional("payment_method_id", KindString, str, func(a *PaymentAttempt) **string { return &a.PaymentMethodID }),
	canonical(optional("payment_method", KindEnum, enum(PaymentMethodCard, PaymentMethods), func(a *PaymentAttempt) **PaymentMethod { return &a.PaymentMethod }), PaymentMethodCard),
	optional("connector_transaction_id", KindString, str, func(a *PaymentAttempt) **string { return &a.ConnectorTransactionID }),
	canonical(optional("capture_method", KindEnum, enum(CaptureAutomatic, CaptureMethods), func(a *PaymentAttempt) **CaptureMethod { return &a.CaptureMethod }), CaptureAutomatic),
	optional("capture_on", KindTimestamp, timestamp, func(a *PaymentAttempt) **civil.DateTime { return &a.CaptureOn }),
	required("confirm", KindBool, boolean, func(a *PaymentAttempt) *bool { return &a.Confirm }),
	canonical(optional("authentication_type", KindEnum, enum(AuthenticationThreeDs, AuthenticationTypes), func(a *PaymentAttempt) **AuthenticationType { return &a.AuthenticationType }), AuthenticationThreeDs),
	required("created_at", KindTimestamp, timestamp, func(a *PaymentAttempt) *civil.DateTime { return &a.CreatedAt }),
	required("modified_at", KindTimestamp, timestamp, func(a *PaymentAttempt) *civil.DateTime { return &a.ModifiedAt }),
	optional("last_synced", KindTimestamp, timestamp, func(a *PaymentAttempt) **civil.DateTime { return &a.LastSynced }),
	optional("cancellation_reason", KindString, str, func(a *PaymentAttempt) **string { return &a.CancellationReason }),
	optional("amount_to_capture", KindInt64, i64, func(a *PaymentAttempt) **int64 { return &a.AmountToCapture }),
	optional("mandate_id", KindString, str, func(a *PaymentAttempt) **string { return &a.MandateID }),
	optional("browser_info", KindJSON, payload, func(a *PaymentAttempt) **json.RawMessage { return &a.BrowserInfo }),
	optional("error_code", KindString, str, func(a *PaymentAttempt) **string { return &a.ErrorCode }),
	optional("payment_token", KindString, str, func(a *PaymentAttempt) **string { return &a.PaymentToken }),
	optional("connector_metadata", KindJSON, payload, func(a *PaymentAttempt) **json.RawMessage { return &a.ConnectorMetadata }),
	canonical(optional("payment_experience", KindEnum, enum(ExperienceRedirectToURL, PaymentExperiences), func(a *PaymentAttempt) **PaymentExperience { return &a.PaymentExperience }), ExperienceRedirectToURL),
	canonical(optional("payment_method_type", KindEnum, enum(PaymentMethodTypeCardRedirect, PaymentMethodTypes), func(a *PaymentAttempt) **PaymentMethodType { return &a.PaymentMethodType }), PaymentMethodTypeCardRedirect),
	optional("payment_method_data", KindJSON, payload, func(a *PaymentAttempt) **json.RawMessage { return &a.PaymentMethodData }),
	optional("business_sub_label", KindString, str, func(a *PaymentAttempt) **string { return &a.BusinessSubLabel }),
	optional("straight_through_algorithm", KindJSON, payload, func(a *PaymentAttempt) **json.RawMessage { return &a.StraightThroughAlgorithm }),
	optional("preprocessing_step_id", KindString, str, func(a *PaymentAttempt) **string { return &a.PreprocessingStepID }),
	optional("mandate_details", KindJSON, rule[MandateDataType](mandateType), func(a *PaymentAttempt) **MandateDataType { return &a.MandateDetails }),
	optional("error_reason", KindString, str, func(a *PaymentAttempt) **string { return &a.ErrorReason }),
	optional("multiple_capture_count", KindInt16, i16, func(a *PaymentAttempt) **int16 { return &a.MultipleCaptureCount }),
	optional("connector_response_reference_id", KindString, str, func(a *PaymentAttempt) **string { return &a.ConnectorResponseReferenceID }),
	required("amount_capturable", KindInt64, i64, func(a *PaymentAttempt) *int64 { return &a.AmountCapturable }),
	required("updated_by", KindString, str, func(a *PaymentAttempt) *string { return &a.UpdatedBy }),
	optional("merchant_connector_id", KindString, str, func(a *PaymentAttempt) **string { return &a.MerchantConnectorID }),
	optional("authentication_data", KindJSON, payload, func(a *PaymentAttempt) **json.RawMessage { return &a.AuthenticationData }),
	optional("encoded_data", KindString, str, func(a *PaymentAttempt) **string { return &a.EncodedData }),
	optional("unified_code", KindString, str, func(a *PaymentAttempt) **string { return &a.UnifiedCode }),
	optional("unified_message", KindString, str, func(a *PaymentAttempt) **string { return &a.UnifiedMessage }),
	optional("net_amount", KindInt64, i64, func(a *PaymentAttempt) **int64 { return &a.NetAmount }),
	optional("external_three_ds_authentication_attempted", KindBool, boolean, func(a *PaymentAttempt) **bool { return &a.ExternalThreeDSAuthenticationAttempted }),
	optional("authentication_connector", KindString, str, func(a *PaymentAttempt) **string { return &a.AuthenticationConnector }),
	optional("authentication_id", KindString, str, func(a *PaymentAttempt) **string { return &a.AuthenticationID }),
	optional("mandate_data", KindJSON, rule[MandateDetails](mandateDetails), func(a *PaymentAttempt) **MandateDetails { return &a.MandateData }),
	optional("fingerprint_id", KindString, str, func(a *PaymentAttempt) **string { return &a.FingerprintID }),
	optional("payment_method_billing_address_id", KindString, str, func(a *PaymentAttempt) **string { return &a.PaymentMethodBillingAddressID }),
	optional("charge_id", KindString, str, func(a *PaymentAttempt) **string { return &a.ChargeID }),
	optional("client_source", KindString, str, func(a *PaymentAttempt) **string { return &a.ClientSource }),
	optional("client_version", KindString, str, func(a *PaymentAttempt) **string { return &a.ClientVersion }),
	optional("customer_acceptance", KindJSON, payload, func(a *PaymentAttempt) **json.RawMessage { return &a.CustomerAcceptance }),
	optional("profile_id", KindString, str, func(a *PaymentAttempt) **string { return &a.ProfileID }),
})

func index(fs []Field) []Field {
	if len(fs) != NumColumns {
		panic(fmt.Sprintf("attempt: field table has %d columns, want %d", len(fs), NumColumns))
	}
	for i := range fs {
		fs[i].Index = i
	}
	return fs
}

var schema = buildSchema()

func buildSchema() *arrow.Schema {
	afs := make([]arrow.Field, len(fields))
	for i, f := range fields {
		afs[i] = arrow.Field{Name: f.Column, Type: f.Kind.ArrowType(), Nullable: f.Optional}
	}
	return arrow.NewSchema(afs, nil)
}

// Fields returns a copy of the field table in column order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

// Columns returns the column names in order.
func Columns() []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}

// Lookup finds a field by column name.
func Lookup(column string) (Field, bool) {
	for _, f := range fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Schema is the Arrow schema derived from the field table. Mandatory columns
// are non-nullable.
func Schema() *arrow.Schema {
	return schema
}
