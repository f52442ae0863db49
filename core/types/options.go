package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ChainEntry selects a supported chain and optionally overrides its RPC endpoint.
type ChainEntry struct {
	ChainID int64   `json:"chainId" mapstructure:"chain_id" validate:"required,gt=0"`
	RPCURL  *string `json:"rpcUrl" mapstructure:"rpc_url" validate:"omitempty,url"`
}

// ConnectionOptions is handed to the bridge once, on configure.
type ConnectionOptions struct {
	ProjectID          string       `json:"projectId" mapstructure:"project_id" validate:"required"`
	Name               string       `json:"name" mapstructure:"name"`
	Description        string       `json:"description" mapstructure:"description"`
	URL                string       `json:"url" mapstructure:"url"`
	TermsConditionsURL string       `json:"termsConditionsUrl" mapstructure:"terms_conditions_url"`
	PrivacyPolicyURL   string       `json:"privacyPolicyUrl" mapstructure:"privacy_policy_url"`
	ThemeMode          string       `json:"themeMode" mapstructure:"theme_mode" validate:"omitempty,oneof=light dark"`
	BackgroundColor    string       `json:"backgroundColor" mapstructure:"background_color"`
	AccentColor        string       `json:"accentColor" mapstructure:"accent_color"`
	EnableEmail        bool         `json:"enableEmail" mapstructure:"enable_email"`
	ChainIDs           []ChainEntry `json:"chainIds" mapstructure:"chain_ids" validate:"dive"`
}

func (o ConnectionOptions) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return errors.Wrap(err, "invalid connection options")
	}
	return nil
}

// RPCOverrides returns chain id -> rpc url for entries that carry one.
func (o ConnectionOptions) RPCOverrides() map[int64]string {
	out := make(map[int64]string, len(o.ChainIDs))
	for _, c := range o.ChainIDs {
		if c.RPCURL != nil && *c.RPCURL != "" {
			out[c.ChainID] = *c.RPCURL
		}
	}
	return out
}
