package ipbauth_test

import (
	"context"
	"errors"
	"testing"

	ipbauth "github.com/goliatone/go-ipb-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestResolveCanonicalUsername(t *testing.T) {
	cfg := configFor(3)
	forum := setupForum(t, cfg)
	forum.addMember(t, legacyMember(1, "john_doe", "pw", "salt"))
	forum.addMember(t, legacyMember(2, "mary ann", "pw", "salt"))

	provider := ipbauth.NewProvider(cfg, forum.connector, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "underscore variant stored", input: "john doe", expected: "John doe"},
		{name: "exact spelling", input: "john_doe", expected: "John doe"},
		{name: "space spelling stored", input: "mary ann", expected: "Mary ann"},
		{name: "no match", input: "nobody here", expected: "nobody here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, provider.ResolveCanonicalUsername(ctx, tt.input))
		})
	}
}

func TestResolveCanonicalUsernameNotCreatable(t *testing.T) {
	cfg := configFor(3)
	forum := setupForum(t, cfg)
	forum.addMember(t, legacyMember(1, "127.0.0.1", "pw", "salt"))

	provider := ipbauth.NewProvider(cfg, forum.connector, nil)
	assert.Equal(t, "127.0.0.1", provider.ResolveCanonicalUsername(context.Background(), "127.0.0.1"))
}

func TestResolveCanonicalUsernameConnectionFailure(t *testing.T) {
	connector := new(MockConnector)
	connector.On("Connect", mock.Anything, mock.Anything).Return(nil, errors.New("refused"))

	provider := ipbauth.NewProvider(configFor(3), connector, nil)
	assert.Equal(t, "john doe", provider.ResolveCanonicalUsername(context.Background(), "john doe"))
}

func TestResolveCanonicalUsernameCustomCanonicalizer(t *testing.T) {
	cfg := configFor(3)
	forum := setupForum(t, cfg)
	forum.addMember(t, legacyMember(1, "john_doe", "pw", "salt"))

	provider := ipbauth.NewProvider(cfg, forum.connector, nil).
		WithCanonicalizer(ipbauth.CanonicalizerFunc(func(name string) (string, bool) {
			return "ext:" + name, true
		}))

	assert.Equal(t, "ext:john_doe", provider.ResolveCanonicalUsername(context.Background(), "john doe"))
}
