package ovh

import "github.com/google/wire"

var ProviderSet = wire.NewSet(ProvideClient)

// ProvideClient 凭据由 settings 服务实时提供
func ProvideClient(conf Conf, creds CredentialSource) *Client {
	return NewClient(conf, creds)
}
