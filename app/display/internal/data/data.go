package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/kv/factory"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

type Data struct {
	Store *store.Store
}

// NewData 打开存储后端并加载已保存的报告；数据损坏时以空集合启动
func NewData(cfg *config.Config, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	ctx := context.Background()

	backend, err := factory.NewBackend(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	s := store.New(backend, cfg.Store.Key)
	reports, err := s.Load(ctx)
	var loadErr *store.LoadError
	switch {
	case errors.As(err, &loadErr):
		helper.Warnf("stored reports under %s could not be decoded, starting empty: %v", loadErr.Key, loadErr.Err)
	case err != nil:
		_ = backend.Close()
		return nil, nil, err
	default:
		helper.Infof("loaded %d reports from %s store", len(reports), cfg.Store.Driver)
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		if err := s.Close(); err != nil {
			helper.Errorf("close store: %v", err)
		}
	}
	return &Data{Store: s}, cleanup, nil
}
