package handler

import (
	"timebank-go/internal/transport/httpserver/handler/admin"
	"timebank-go/internal/transport/httpserver/handler/balances"
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/internal/transport/httpserver/handler/entries"
	"timebank-go/internal/transport/httpserver/handler/tasks"
)

type Handlers struct {
	Common   *common.Handlers
	Entries  *entries.Handlers
	Tasks    *tasks.Handlers
	Balances *balances.Handlers
	Admin    *admin.Handlers
}

func New(commonHandlers *common.Handlers, entriesHandlers *entries.Handlers, tasksHandlers *tasks.Handlers, balancesHandlers *balances.Handlers, adminHandlers *admin.Handlers) *Handlers {
	return &Handlers{
		Common:   commonHandlers,
		Entries:  entriesHandlers,
		Tasks:    tasksHandlers,
		Balances: balancesHandlers,
		Admin:    adminHandlers,
	}
}
