package writegate

import (
	"go.uber.org/fx"

	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	wgif "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/writegate"
)

// Params 门闸依赖
type Params struct {
	fx.In

	Logger log.Logger `optional:"true"`
}

// Module 每个应用实例一个门闸，作用域为链标识
func Module() fx.Option {
	return fx.Module("writegate",
		fx.Provide(func(p Params) wgif.WriteGate {
			var opts []Option
			if p.Logger != nil {
				opts = append(opts, WithLogger(p.Logger.With("module", "writegate")))
			}
			return New(opts...)
		}),
	)
}
