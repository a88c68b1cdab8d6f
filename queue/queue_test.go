package queue

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConn fakes a redis connection with per command replies.
type scriptedConn struct {
	commands []string
	replies  map[string]interface{}
	fail     map[string]error
}

func (c *scriptedConn) Close() error { return nil }
func (c *scriptedConn) Err() error   { return nil }
func (c *scriptedConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	if cmd == "" {
		// redigo's pooled activeConn.Close() issues an internal Do("")
		// to flush connection state; it is not a queue command
		return nil, nil
	}
	c.commands = append(c.commands, cmd)
	if err := c.fail[cmd]; err != nil {
		return nil, err
	}
	return c.replies[cmd], nil
}
func (c *scriptedConn) Send(string, ...interface{}) error { return nil }
func (c *scriptedConn) Flush() error                      { return nil }
func (c *scriptedConn) Receive() (interface{}, error)     { return nil, nil }

func useScriptedConn(t *testing.T, conn *scriptedConn) {
	t.Helper()
	saved := pool
	pool = &redis.Pool{Dial: func() (redis.Conn, error) { return conn, nil }}
	t.Cleanup(func() { pool = saved })
}

func TestJobPayloadBind(t *testing.T) {
	type settlePayload struct {
		BridgeID string `json:"bridgeId"`
	}
	raw, err := json.Marshal(settlePayload{BridgeID: "bridge-1"})
	require.NoError(t, err)

	job := &Job{ID: "id", Task: "settle", Key: "bridge-1", Payload: raw}
	blob, err := json.Marshal(job)
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, json.Unmarshal(blob, &decoded))
	var payload settlePayload
	require.NoError(t, decoded.Bind(&payload))
	assert.Equal(t, "bridge-1", payload.BridgeID)
}

func TestQueueKeys(t *testing.T) {
	q := New("bridge")
	assert.Equal(t, "queue:bridge", q.listKey())
	assert.Equal(t, "queue:bridge:keys", q.dedupeKey())
}

func TestEnqueueReleasesKeyOnPushFailure(t *testing.T) {
	pushErr := errors.New("connection reset")
	conn := &scriptedConn{
		replies: map[string]interface{}{"SADD": int64(1)},
		fail:    map[string]error{"LPUSH": pushErr},
	}
	useScriptedConn(t, conn)

	q := New("bridge")
	added, err := q.Enqueue("settle", "bridge-1", nil)
	assert.False(t, added)
	assert.ErrorIs(t, err, pushErr)
	// the reservation must not outlive the failed push, a held key with
	// no job would keep the bridge out of the queue forever
	assert.Equal(t, []string{"SADD", "LPUSH", "SREM"}, conn.commands)
}

func TestEnqueueHeldKeyDropsJob(t *testing.T) {
	conn := &scriptedConn{
		replies: map[string]interface{}{"SADD": int64(0)},
	}
	useScriptedConn(t, conn)

	q := New("bridge")
	added, err := q.Enqueue("settle", "bridge-1", nil)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"SADD"}, conn.commands, "no push and no release while the key is held")
}

func TestEnqueueBadPayloadLeavesNoReservation(t *testing.T) {
	conn := &scriptedConn{}
	useScriptedConn(t, conn)

	q := New("bridge")
	_, err := q.Enqueue("settle", "bridge-1", func() {}) // not marshalable
	assert.Error(t, err)
	assert.Empty(t, conn.commands, "marshal failure happens before any redis command")
}

func TestEnqueueRequiresInit(t *testing.T) {
	saved := pool
	pool = nil
	defer func() { pool = saved }()

	q := New("bridge")
	_, err := q.Enqueue("settle", "bridge-1", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = q.Has("bridge-1")
	assert.ErrorIs(t, err, ErrNotInitialized)
}
