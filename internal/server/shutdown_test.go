package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownHooks_ReverseOrder(t *testing.T) {
	var order []string
	hooks := &ShutdownHooks{}

	hooks.Add("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	hooks.Add("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})
	hooks.AddSimple("third", func() error {
		order = append(order, "third")
		return nil
	})

	hooks.Execute(context.Background())

	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestShutdownHooks_FailureDoesNotStopRemainder(t *testing.T) {
	var order []string
	hooks := &ShutdownHooks{}

	hooks.Add("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	hooks.Add("failing", func(context.Context) error {
		return errors.New("boom")
	})

	hooks.Execute(context.Background())

	assert.Equal(t, []string{"first"}, order)
}

func TestShutdownHooks_NilHookIgnored(t *testing.T) {
	hooks := &ShutdownHooks{}

	hooks.Add("nil", nil)
	hooks.AddSimple("nil simple", nil)

	assert.NotPanics(t, func() {
		hooks.Execute(context.Background())
	})
}
