package gen

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake", fx.Provide(NewSnowflakeNode))

const defaultNodeID = 1

// NewSnowflakeNode builds the node every service uses for primary keys.
func NewSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(defaultNodeID)
}
