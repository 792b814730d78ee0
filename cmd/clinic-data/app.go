package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/notify"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/storage"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

// app 持有一次命令执行期间打开的资源
type app struct {
	kv    storage.KV
	store *store.Store
	close []func()
}

// openApp 打开存储后端，按需连接 MQTT，然后加载（或写入种子）数据
func openApp(ctx context.Context) (*app, error) {
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	a := &app{kv: kv}
	a.close = append(a.close, func() {
		if err := kv.Close(); err != nil {
			log.Warn("Failed to close storage", zap.Error(err))
		}
	})

	var opts []store.Option
	if cfg.MQTT.Enabled {
		client, err := notify.Connect(&cfg.MQTT)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.close = append(a.close, func() { client.Disconnect(250) })
		opts = append(opts, store.WithNotifier(notify.NewMQTTNotifier(client, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, log)))
		log.Info("MQTT change feed enabled", zap.String("broker", cfg.MQTT.Broker))
	}

	st, err := store.Open(ctx, kv, log, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = st
	log.Info("Store loaded",
		zap.String("backend", cfg.Storage.Backend),
		zap.Int("patients", len(st.Patients())),
		zap.Int("incidents", len(st.Incidents())),
	)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.close) - 1; i >= 0; i-- {
		a.close[i]()
	}
}
