package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates roughly time-ordered int64 identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator for the given node. A negative node derives
// one from the hostname.
func NewSnowflake(node int64) (*Snowflake, error) {
	if node < 0 {
		node = hostNode()
	}

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func hostNode() int64 {
	host, err := os.Hostname()
	if err != nil {
		return 1
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(host))

	return int64(h.Sum32() % 1024)
}
