package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Migrate brings the namespace up to CurrentSchemaVersion. Running it twice
// is a no-op.
func Migrate(ctx context.Context, kv KV) error {
	version := 0
	raw, ok, err := kv.Get(ctx, KeySchemaVersion)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}
	if ok {
		if version, err = strconv.Atoi(raw); err != nil {
			return errors.Wrapf(err, "schema version %q", raw)
		}
	}
	if version >= CurrentSchemaVersion {
		return nil
	}

	logger := log.WithFields(log.Fields{"from": version, "to": CurrentSchemaVersion})
	logger.Info("migrating stored data")

	if err := rewriteRecords(ctx, kv, KeySales, normalizeSale); err != nil {
		return err
	}
	if err := rewriteRecords(ctx, kv, KeyNotifications, normalizeNotification); err != nil {
		return err
	}
	if err := kv.Put(ctx, KeySchemaVersion, strconv.Itoa(CurrentSchemaVersion)); err != nil {
		return &WriteError{Key: KeySchemaVersion, Err: err}
	}
	logger.Info("migration complete")
	return nil
}

// rewriteRecords applies fix to every object of the JSON array stored at
// key. Objects are handled as generic maps so fields this version does not
// know about survive the rewrite. A corrupt array is left untouched.
func rewriteRecords(ctx context.Context, kv KV, key string, fix func(map[string]interface{})) error {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return errors.Wrapf(err, "read %s", key)
	}
	if !ok || raw == "" {
		return nil
	}

	var records []map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		log.WithError(err).WithField("key", key).Warn("skipping migration of unreadable data")
		return nil
	}
	for _, record := range records {
		if record != nil {
			fix(record)
		}
	}
	out, err := json.Marshal(records)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := kv.Put(ctx, key, string(out)); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

func normalizeSale(sale map[string]interface{}) {
	if n, ok := sale["id"].(json.Number); ok {
		sale["id"] = n.String()
	}
	if s, _ := sale["orderType"].(string); s == "" {
		sale["orderType"] = "Dine In"
	}
	if s, _ := sale["paymentMethod"].(string); s == "" {
		sale["paymentMethod"] = "Cash"
	}
}

func normalizeNotification(n map[string]interface{}) {
	if sale, ok := n["orderData"].(map[string]interface{}); ok {
		normalizeSale(sale)
	}
}
