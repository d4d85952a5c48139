package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// The node is created once; per-call construction would reset the
// sequence step and repeat IDs within a millisecond.
var runIDNode = sync.OnceValue(func() *snowflake.Node {
	nodeID := int64(1)
	if env := os.Getenv("SNOWFLAKE_NODE"); env != "" {
		if n, err := strconv.ParseInt(env, 10, 64); err == nil {
			nodeID = n
		}
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil
	}
	return node
})

// NewRunID generates an ID that correlates all log lines of one batch run.
// Snowflake IDs are used so runs sort chronologically; the node ID comes
// from SNOWFLAKE_NODE when set. If node setup fails it falls back to a
// KSUID so a unique ID is always returned.
func NewRunID() string {
	if node := runIDNode(); node != nil {
		return node.Generate().String()
	}
	return ksuid.New().String()
}
