package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs using the snowflake layout.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a Snowflake generator.
//
// The node number is derived from the hostname so that replicas of the same
// deployment get distinct (best effort) node identities without coordination.
func NewSnowflake() (*Snowflake, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	h := fnv.New32a()
	if _, err := h.Write([]byte(hostname)); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(int64(h.Sum32() % 1024))
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
