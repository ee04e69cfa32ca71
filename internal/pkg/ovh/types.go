package ovh

const (
	StatusUnavailable = "unavailable"
	StatusUnknown     = "unknown"
)

// Credentials 由 settings 服务在每次请求时提供，修改后立即生效
type Credentials struct {
	AppKey      string
	AppSecret   string
	ConsumerKey string
	Endpoint    string
}

func (c Credentials) Complete() bool {
	return c.AppKey != "" && c.AppSecret != "" && c.ConsumerKey != ""
}

type CredentialSource interface {
	Credentials() Credentials
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() Credentials

func (f CredentialFunc) Credentials() Credentials { return f() }

type DatacenterStatus struct {
	Datacenter   string `json:"datacenter"`
	Availability string `json:"availability"`
}

// Availability 对应 /dedicated/server/datacenter/availabilities 的一项
type Availability struct {
	FQN         string             `json:"fqn"`
	PlanCode    string             `json:"planCode"`
	Server      string             `json:"server"`
	Memory      string             `json:"memory"`
	Storage     string             `json:"storage"`
	Datacenters []DatacenterStatus `json:"datacenters"`
}

type AddonFamily struct {
	Name      string   `json:"name"`
	Addons    []string `json:"addons"`
	Default   string   `json:"default"`
	Mandatory bool     `json:"mandatory"`
}

type CatalogPlan struct {
	PlanCode      string        `json:"planCode"`
	InvoiceName   string        `json:"invoiceName"`
	DisplayName   string        `json:"displayName,omitempty"`
	Description   string        `json:"description,omitempty"`
	Product       string        `json:"product,omitempty"`
	AddonFamilies []AddonFamily `json:"addonFamilies"`
}

type CatalogAddon struct {
	PlanCode    string `json:"planCode"`
	InvoiceName string `json:"invoiceName"`
	Product     string `json:"product,omitempty"`
}

// Catalog 是 /order/catalog/public/eco 的子集
type Catalog struct {
	CatalogID int            `json:"catalogId"`
	Locale    map[string]any `json:"locale,omitempty"`
	Plans     []CatalogPlan  `json:"plans"`
	Addons    []CatalogAddon `json:"addons,omitempty"`
}

type Cart struct {
	CartID      string `json:"cartId"`
	Description string `json:"description,omitempty"`
	Expire      string `json:"expire,omitempty"`
}

type CartItem struct {
	ItemID   int64  `json:"itemId"`
	CartID   string `json:"cartId"`
	Duration string `json:"duration,omitempty"`
}

type RequiredConfiguration struct {
	Label         string   `json:"label"`
	Required      bool     `json:"required"`
	AllowedValues []string `json:"allowedValues,omitempty"`
	Type          string   `json:"type,omitempty"`
}

type EcoOption struct {
	PlanCode    string `json:"planCode"`
	Family      string `json:"family,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Duration    string `json:"duration,omitempty"`
	PricingMode string `json:"pricingMode,omitempty"`
	Mandatory   bool   `json:"mandatory,omitempty"`
}

type Order struct {
	OrderID int64  `json:"orderId"`
	URL     string `json:"url"`
}

type Me struct {
	Nichandle string `json:"nichandle"`
	Email     string `json:"email"`
	Country   string `json:"country,omitempty"`
	Currency  struct {
		Code string `json:"code"`
	} `json:"currency"`
}
