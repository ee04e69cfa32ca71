package model

// Settings 运维在页面上编辑的凭据，保存在 config.json
type Settings struct {
	AppKey      string `json:"appKey"`
	AppSecret   string `json:"appSecret"`
	ConsumerKey string `json:"consumerKey"`
	Endpoint    string `json:"endpoint"`
	TgToken     string `json:"tgToken"`
	TgChatID    string `json:"tgChatId"`
	IAM         string `json:"iam"`
	Zone        string `json:"zone"`
}

type Stats struct {
	ActiveQueues     int `json:"activeQueues"`
	TotalServers     int `json:"totalServers"`
	AvailableServers int `json:"availableServers"`
	PurchaseSuccess  int `json:"purchaseSuccess"`
	PurchaseFailed   int `json:"purchaseFailed"`
}
