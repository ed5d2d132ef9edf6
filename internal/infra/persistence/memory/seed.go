package memory

import (
	"context"
	"log/slog"
	"time"

	"kinwatch/config"
	"kinwatch/internal/domain/entity"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Seed is the family directory the memory driver starts with. In production
// the directory is owned by the account service and shared through Postgres.
type Seed struct {
	Families   []*entity.Family    `json:"families"`
	Recipients []*entity.Recipient `json:"recipients"`
}

// LoadSeed reads a YAML (or JSON) Seed document from path into the store.
func LoadSeed(ctx context.Context, store *Store, path string) (*Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read seed %s", path)
	}

	var seed Seed
	if err := k.UnmarshalWithConf("", &seed, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName: "json",
			Result:  &seed,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeHookFunc(time.RFC3339),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "parse seed %s", path)
	}

	families := NewFamilyRepository(store)
	recipients := NewRecipientRepository(store)
	now := time.Now().UTC()

	for _, f := range seed.Families {
		if f.CreatedAt.IsZero() {
			f.CreatedAt = now
		}
		f.UpdatedAt = now
		if err := families.Create(ctx, f); err != nil {
			return nil, errors.Wrapf(err, "seed family %s", f.ID)
		}
	}
	for _, r := range seed.Recipients {
		if err := recipients.Upsert(ctx, r); err != nil {
			return nil, errors.Wrapf(err, "seed recipient %s", r.ID)
		}
	}

	return &seed, nil
}

type seedParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Store  *Store
	Logger *slog.Logger
}

func registerSeed(params seedParams) {
	if params.Config.Storage == nil || params.Config.Storage.SeedPath == "" {
		return
	}
	path := params.Config.Storage.SeedPath

	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			seed, err := LoadSeed(ctx, params.Store, path)
			if err != nil {
				return err
			}
			params.Logger.Info("Memory store seeded",
				slog.String("path", path),
				slog.Int("families", len(seed.Families)),
				slog.Int("recipients", len(seed.Recipients)),
			)

			return nil
		},
	})
}
