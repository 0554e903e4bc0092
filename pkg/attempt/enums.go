package attempt

import "fmt"

// The enum types below are string-backed; the string value is the variant's
// canonical text and is what gets bound and persisted. MarshalText rejects
// values outside the declared variant set.

// AttemptStatus is the lifecycle state of a payment attempt.
type AttemptStatus string

const (
	StatusStarted                     AttemptStatus = "Started"
	StatusAuthenticationFailed        AttemptStatus = "AuthenticationFailed"
	StatusRouterDeclined              AttemptStatus = "RouterDeclined"
	StatusAuthenticationPending       AttemptStatus = "AuthenticationPending"
	StatusAuthenticationSuccessful    AttemptStatus = "AuthenticationSuccessful"
	StatusAuthorized                  AttemptStatus = "Authorized"
	StatusAuthorizationFailed         AttemptStatus = "AuthorizationFailed"
	StatusCharged                     AttemptStatus = "Charged"
	StatusAuthorizing                 AttemptStatus = "Authorizing"
	StatusCodInitiated                AttemptStatus = "CodInitiated"
	StatusVoided                      AttemptStatus = "Voided"
	StatusVoidInitiated               AttemptStatus = "VoidInitiated"
	StatusCaptureInitiated            AttemptStatus = "CaptureInitiated"
	StatusCaptureFailed               AttemptStatus = "CaptureFailed"
	StatusVoidFailed                  AttemptStatus = "VoidFailed"
	StatusAutoRefunded                AttemptStatus = "AutoRefunded"
	StatusPartialCharged              AttemptStatus = "PartialCharged"
	StatusPartialChargedAndChargeable AttemptStatus = "PartialChargedAndChargeable"
	StatusUnresolved                  AttemptStatus = "Unresolved"
	StatusPending                     AttemptStatus = "Pending"
	StatusFailure                     AttemptStatus = "Failure"
	StatusPaymentMethodAwaited        AttemptStatus = "PaymentMethodAwaited"
	StatusConfirmationAwaited         AttemptStatus = "ConfirmationAwaited"
	StatusDeviceDataCollectionPending AttemptStatus = "DeviceDataCollectionPending"
)

// AttemptStatuses lists every AttemptStatus in declaration order.
var AttemptStatuses = []AttemptStatus{
	StatusStarted, StatusAuthenticationFailed, StatusRouterDeclined, StatusAuthenticationPending,
	StatusAuthenticationSuccessful, StatusAuthorized, StatusAuthorizationFailed, StatusCharged,
	StatusAuthorizing, StatusCodInitiated, StatusVoided, StatusVoidInitiated,
	StatusCaptureInitiated, StatusCaptureFailed, StatusVoidFailed, StatusAutoRefunded,
	StatusPartialCharged, StatusPartialChargedAndChargeable, StatusUnresolved, StatusPending,
	StatusFailure, StatusPaymentMethodAwaited, StatusConfirmationAwaited, StatusDeviceDataCollectionPending,
}

// Currency is an ISO 4217 currency code.
type Currency string

// CurrencyUSD is the canonical default currency.
const CurrencyUSD Currency = "USD"

// Currencies lists every supported currency code.
var Currencies = []Currency{
	"AED", "ALL", "AMD", "ANG", "AOA", "ARS", "AUD", "AWG", "AZN", "BAM", "BBD", "BDT",
	"BGN", "BHD", "BIF", "BMD", "BND", "BOB", "BRL", "BSD", "BWP", "BYN", "BZD", "CAD",
	"CHF", "CLP", "CNY", "COP", "CRC", "CUP", "CVE", "CZK", "DJF", "DKK", "DOP", "DZD",
	"EGP", "ETB", "EUR", "FJD", "FKP", "GBP", "GEL", "GHS", "GIP", "GMD", "GNF", "GTQ",
	"GYD", "HKD", "HNL", "HRK", "HTG", "HUF", "IDR", "ILS", "INR", "IQD", "JMD", "JOD",
	"JPY", "KES", "KGS", "KHR", "KMF", "KRW", "KWD", "KYD", "KZT", "LAK", "LBP", "LKR",
	"LRD", "LSL", "LYD", "MAD", "MDL", "MGA", "MKD", "MMK", "MNT", "MOP", "MRU", "MUR",
	"MVR", "MWK", "MXN", "MYR", "MZN", "NAD", "NGN", "NIO", "NOK", "NPR", "NZD", "OMR",
	"PAB", "PEN", "PGK", "PHP", "PKR", "PLN", "PYG", "QAR", "RON", "RSD", "RUB", "RWF",
	"SAR", "SBD", "SCR", "SEK", "SGD", "SHP", "SLE", "SLL", "SOS", "SRD", "SSP", "STN",
	"SVC", "SZL", "THB", "TND", "TOP", "TRY", "TTD", "TWD", "TZS", "UAH", "UGX", "USD",
	"UYU", "UZS", "VES", "VND", "VUV", "WST", "XAF", "XCD", "XOF", "XPF", "YER", "ZAR",
	"ZMW",
}

// PaymentMethod is the broad payment instrument family.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "Card"
	PaymentMethodToken          PaymentMethod = "Token"
	PaymentMethodPaymentProfile PaymentMethod = "PaymentProfile"
	PaymentMethodCash           PaymentMethod = "Cash"
	PaymentMethodCheque         PaymentMethod = "Cheque"
	PaymentMethodInterac        PaymentMethod = "Interac"
	PaymentMethodApplePay       PaymentMethod = "ApplePay"
	PaymentMethodAndroidPay     PaymentMethod = "AndroidPay"
	PaymentMethodThreeDSecure   PaymentMethod = "3d_secure"
	PaymentMethodProcessorToken PaymentMethod = "ProcessorToken"
)

// PaymentMethods lists every PaymentMethod.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCard, PaymentMethodToken, PaymentMethodPaymentProfile, PaymentMethodCash,
	PaymentMethodCheque, PaymentMethodInterac, PaymentMethodApplePay, PaymentMethodAndroidPay,
	PaymentMethodThreeDSecure, PaymentMethodProcessorToken,
}

// CaptureMethod controls when an authorized amount is captured.
type CaptureMethod string

const (
	// CaptureAutomatic captures the full amount right after authorization.
	CaptureAutomatic CaptureMethod = "Automatic"
	// CaptureManual waits for the merchant to trigger a capture.
	CaptureManual CaptureMethod = "Manual"
	// CaptureManualMultiple allows several merchant-triggered partial captures.
	CaptureManualMultiple CaptureMethod = "ManualMultiple"
	// CaptureScheduled captures at a scheduled date and time.
	CaptureScheduled CaptureMethod = "Scheduled"
)

// CaptureMethods lists every CaptureMethod.
var CaptureMethods = []CaptureMethod{CaptureAutomatic, CaptureManual, CaptureManualMultiple, CaptureScheduled}

// AuthenticationType selects whether 3DS authentication runs.
type AuthenticationType string

const (
	AuthenticationThreeDs   AuthenticationType = "ThreeDs"
	AuthenticationNoThreeDs AuthenticationType = "NoThreeDs"
)

// AuthenticationTypes lists every AuthenticationType.
var AuthenticationTypes = []AuthenticationType{AuthenticationThreeDs, AuthenticationNoThreeDs}

// PaymentExperience is the next action the customer is taken through.
type PaymentExperience string

const (
	ExperienceRedirectToURL     PaymentExperience = "RedirectToUrl"
	ExperienceInvokeSdkClient   PaymentExperience = "InvokeSdkClient"
	ExperienceDisplayQrCode     PaymentExperience = "DisplayQrCode"
	ExperienceOneClick          PaymentExperience = "OneClick"
	ExperienceLinkWallet        PaymentExperience = "LinkWallet"
	ExperienceInvokePaymentApp  PaymentExperience = "InvokePaymentApp"
	ExperienceDisplayWaitScreen PaymentExperience = "DisplayWaitScreen"
)

// PaymentExperiences lists every PaymentExperience.
var PaymentExperiences = []PaymentExperience{
	ExperienceRedirectToURL, ExperienceInvokeSdkClient, ExperienceDisplayQrCode, ExperienceOneClick,
	ExperienceLinkWallet, ExperienceInvokePaymentApp, ExperienceDisplayWaitScreen,
}

// PaymentMethodType is the concrete payment method within a PaymentMethod.
type PaymentMethodType string

// PaymentMethodTypeCardRedirect is the canonical default payment method type.
const PaymentMethodTypeCardRedirect PaymentMethodType = "CardRedirect"

// PaymentMethodTypes lists every PaymentMethodType. ClassicReward is spelled
// "classic" on the wire.
var PaymentMethodTypes = []PaymentMethodType{
	"Ach", "Affirm", "AfterpayClearpay", "Alfamart", "AliPay", "AliPayHk",
	"Alma", "ApplePay", "Atome", "Bacs", "BancontactCard", "Becs",
	"Benefit", "Bizum", "Blik", "Boleto", "BcaBankTransfer", "BniVa",
	"BriVa", "CardRedirect", "CimbVa", "classic", "Credit", "CryptoCurrency",
	"Cashapp", "Dana", "DanamonVa", "Debit", "DuitNow", "Efecty",
	"Eps", "Fps", "Evoucher", "Giropay", "Givex", "GooglePay",
	"GoPay", "Gcash", "Ideal", "Interac", "Indomaret", "Klarna",
	"KakaoPay", "LocalBankRedirect", "MandiriVa", "Knet", "MbWay", "MobilePay",
	"Momo", "MomoAtm", "Multibanco", "OnlineBankingThailand", "OnlineBankingCzechRepublic", "OnlineBankingFinland",
	"OnlineBankingFpx", "OnlineBankingPoland", "OnlineBankingSlovakia", "Oxxo", "PagoEfectivo", "PermataBankTransfer",
	"OpenBankingUk", "PayBright", "Paypal", "Pix", "PaySafeCard", "Przelewy24",
	"PromptPay", "Pse", "RedCompra", "RedPagos", "SamsungPay", "Sepa",
	"Sofort", "Swish", "TouchNGo", "Trustly", "Twint", "UpiCollect",
	"UpiIntent", "Vipps", "VietQr", "Venmo", "Walley", "WeChatPay",
	"SevenEleven", "Lawson", "MiniStop", "FamilyMart", "Seicomart", "PayEasy",
	"LocalBankTransfer", "Mifinity",
}

var (
	attemptStatusSet      = setOf(AttemptStatuses)
	currencySet           = setOf(Currencies)
	paymentMethodSet      = setOf(PaymentMethods)
	captureMethodSet      = setOf(CaptureMethods)
	authenticationTypeSet = setOf(AuthenticationTypes)
	paymentExperienceSet  = setOf(PaymentExperiences)
	paymentMethodTypeSet  = setOf(PaymentMethodTypes)
)

func setOf[E ~string](variants []E) map[E]struct{} {
	m := make(map[E]struct{}, len(variants))
	for _, v := range variants {
		m[v] = struct{}{}
	}
	return m
}

func marshalVariant[E ~string](kind string, set map[E]struct{}, v E) ([]byte, error) {
	if _, ok := set[v]; !ok {
		return nil, fmt.Errorf("unknown %s variant %q", kind, string(v))
	}
	return []byte(v), nil
}

func (s AttemptStatus) MarshalText() ([]byte, error) {
	return marshalVariant("attempt status", attemptStatusSet, s)
}

func (c Currency) MarshalText() ([]byte, error) {
	return marshalVariant("currency", currencySet, c)
}

func (m PaymentMethod) MarshalText() ([]byte, error) {
	return marshalVariant("payment method", paymentMethodSet, m)
}

func (m CaptureMethod) MarshalText() ([]byte, error) {
	return marshalVariant("capture method", captureMethodSet, m)
}

func (a AuthenticationType) MarshalText() ([]byte, error) {
	return marshalVariant("authentication type", authenticationTypeSet, a)
}

func (e PaymentExperience) MarshalText() ([]byte, error) {
	return marshalVariant("payment experience", paymentExperienceSet, e)
}

func (t PaymentMethodType) MarshalText() ([]byte, error) {
	return marshalVariant("payment method type", paymentMethodTypeSet, t)
}
