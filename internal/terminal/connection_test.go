package terminal

import (
	"fmt"
	"testing"
	"time"

	engerr "github.com/ducminhle1904/mt5-trade-engine/internal/errors"
	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTerminal counts lifecycle calls and can be scripted to fail.
type fakeTerminal struct {
	initCalls     int
	loginCalls    int
	shutdownCalls int

	failInits int // fail the first N Initialize calls
	failLogin bool
	session   *types.AccountIdentity
}

func (f *fakeTerminal) Initialize() error {
	f.initCalls++
	if f.initCalls <= f.failInits {
		return fmt.Errorf("ipc timeout")
	}
	return nil
}

func (f *fakeTerminal) Login(login int64, password, server string) error {
	f.loginCalls++
	if f.failLogin {
		return fmt.Errorf("invalid account")
	}
	f.session = &types.AccountIdentity{Login: login, Server: server, Currency: "USD"}
	return nil
}

func (f *fakeTerminal) Shutdown() {
	f.shutdownCalls++
	f.session = nil
}

func (f *fakeTerminal) AccountIdentity() (*types.AccountIdentity, error) {
	if f.session == nil {
		return nil, fmt.Errorf("no session")
	}
	return f.session, nil
}

func (f *fakeTerminal) InstrumentMetadata(symbol string) (*types.InstrumentMetadata, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeTerminal) SubmitLimitOrder(req LimitOrderRequest) (*OrderResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeTerminal) CancelPendingOrder(ticket int64) error {
	return fmt.Errorf("not implemented")
}

func fastOptions() Options {
	return Options{
		ConnectRetries: 3,
		RetryBackoff:   time.Millisecond,
		SettleInterval: time.Millisecond,
	}
}

func testCreds() *Credentials {
	return &Credentials{Login: 5001, Password: "pw", Server: "Broker-Live"}
}

func TestConnectIdempotent(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))
	assert.Equal(t, StateConnected, conn.State())
	assert.Equal(t, 1, fake.initCalls)
	assert.Equal(t, 1, fake.loginCalls)

	// Second connect with the same identity is a no-op: exactly one
	// underlying initialize/login sequence.
	require.NoError(t, conn.Connect(testCreds(), false))
	assert.Equal(t, 1, fake.initCalls)
	assert.Equal(t, 1, fake.loginCalls)

	// No credentials on an already-connected session is also a no-op
	require.NoError(t, conn.Connect(nil, false))
	assert.Equal(t, 1, fake.initCalls)
}

func TestConnectForceReconnect(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))
	require.NoError(t, conn.Connect(testCreds(), true))

	assert.Equal(t, 2, fake.initCalls)
	assert.Equal(t, 2, fake.loginCalls)
	assert.GreaterOrEqual(t, fake.shutdownCalls, 1, "forced reconnect must tear down first")
	assert.Equal(t, StateConnected, conn.State())
}

func TestConnectIdentitySwitchTearsDown(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))

	other := &Credentials{Login: 9009, Password: "pw2", Server: "Broker-Live"}
	require.NoError(t, conn.Connect(other, false))

	assert.GreaterOrEqual(t, fake.shutdownCalls, 1)
	assert.Equal(t, int64(9009), conn.Identity().Login)
}

func TestConnectRetriesThenSucceeds(t *testing.T) {
	fake := &fakeTerminal{failInits: 2}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))
	assert.Equal(t, 3, fake.initCalls)
	assert.Equal(t, StateConnected, conn.State())
}

func TestConnectRetriesExhausted(t *testing.T) {
	fake := &fakeTerminal{failInits: 10}
	conn := NewConnection(fake, fastOptions())

	err := conn.Connect(testCreds(), false)
	require.Error(t, err)
	assert.True(t, engerr.IsCategory(err, engerr.ErrorCategoryConnection))
	assert.Equal(t, 3, fake.initCalls)
	assert.Equal(t, StateDisconnected, conn.State())
	assert.Equal(t, 0, fake.loginCalls, "no login attempt after failed initialization")
}

func TestConnectLoginFailureTearsDown(t *testing.T) {
	fake := &fakeTerminal{failLogin: true}
	conn := NewConnection(fake, fastOptions())

	err := conn.Connect(testCreds(), false)
	require.Error(t, err)
	assert.True(t, engerr.IsCategory(err, engerr.ErrorCategoryConnection))
	assert.GreaterOrEqual(t, fake.shutdownCalls, 1, "failed login must close the opened channel")
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestConnectWithoutCredentialsUsesExistingSession(t *testing.T) {
	fake := &fakeTerminal{session: &types.AccountIdentity{Login: 42, Server: "Saved"}}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(nil, false))
	assert.Equal(t, 0, fake.loginCalls)
	assert.Equal(t, int64(42), conn.Identity().Login)
}

func TestConnectWithoutCredentialsNoSessionFails(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	err := conn.Connect(nil, false)
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestHealthCheckDowngradesOnly(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))
	assert.True(t, conn.HealthCheck())

	// Kill the session behind the connection's back
	fake.session = nil
	assert.False(t, conn.HealthCheck())
	assert.Equal(t, StateDisconnected, conn.State())

	// A live session alone must not upgrade a Disconnected state
	fake.session = &types.AccountIdentity{Login: 5001, Server: "Broker-Live"}
	assert.False(t, conn.HealthCheck())
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestEnsureConnectedReconnects(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))

	// Drop the session; EnsureConnected must restore it with the stored
	// credentials.
	fake.session = nil
	require.NoError(t, conn.EnsureConnected())
	assert.Equal(t, StateConnected, conn.State())
	assert.Equal(t, 2, fake.loginCalls)
	assert.Equal(t, int64(5001), conn.Identity().Login)
}

func TestEnsureConnectedHealthyIsNoOp(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))
	require.NoError(t, conn.EnsureConnected())
	assert.Equal(t, 1, fake.initCalls)
}

func TestDisconnect(t *testing.T) {
	fake := &fakeTerminal{}
	conn := NewConnection(fake, fastOptions())

	require.NoError(t, conn.Connect(testCreds(), false))
	conn.Disconnect()

	assert.Equal(t, StateDisconnected, conn.State())
	assert.Nil(t, conn.Identity())
}
