package secretsprovider

import (
	"github.com/spf13/viper"

	"github.com/aionixone/openact/pkg/apperrors"
)

// LoadMapProviderFile builds a MapProvider from a JSON or YAML file shaped
// as mount -> path -> secret document (§6 OPENACT_SECRETS_FILE). Format is
// detected from the file extension via viper, matching the way pkg/config
// reads its own config file.
func LoadMapProviderFile(path string) (*MapProvider, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.NewInvalidError("secrets: reading secrets file "+path, err)
	}

	raw := v.AllSettings()
	data := make(map[string]map[string]any, len(raw))
	for mount, v := range raw {
		paths, ok := v.(map[string]any)
		if !ok {
			return nil, apperrors.NewInvalidError("secrets: mount "+mount+" must be an object of path -> document", nil)
		}
		data[mount] = paths
	}
	return NewMapProvider(data)
}
