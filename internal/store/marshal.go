package store

import (
	"fmt"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/entity"
)

func marshalAction(a action.Action) (string, error) {
	data, err := action.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalAction(body string) (action.Action, error) {
	return action.Unmarshal([]byte(body))
}

func marshalSlice(s cache.Store) (body, hash string, err error) {
	data, err := entity.MarshalCanonical(s.Object())
	if err != nil {
		return "", "", fmt.Errorf("marshal slice: %w", err)
	}
	return string(data), entity.HashWithDomain(entity.DomainStore, data), nil
}

func unmarshalSlice(body, hash string) (cache.Store, error) {
	if got := entity.HashWithDomain(entity.DomainStore, []byte(body)); got != hash {
		return cache.Store{}, fmt.Errorf("snapshot hash mismatch: stored %s, computed %s", hash, got)
	}
	v, err := entity.DecodeValue([]byte(body))
	if err != nil {
		return cache.Store{}, fmt.Errorf("decode snapshot: %w", err)
	}
	obj, ok := v.(entity.Object)
	if !ok {
		return cache.Store{}, fmt.Errorf("decode snapshot: expected JSON object")
	}
	s, ok := cache.StoreFromObject(obj)
	if !ok {
		return cache.Store{}, fmt.Errorf("decode snapshot: entries must be objects")
	}
	return s, nil
}
