// Package service provides the tool registry agents call into.
//
// Providers advertise a Service definition with its Tools and execute tool
// calls routed to them by id. Tool ids have the form "<service>.<tool>",
// for example "terminal.capture".
//
// Discovery scores services against a free-text intent by matching the
// id, name, description words, capabilities, tool names and category.
//
// Example Usage:
//
//	registry := service.NewRegistry().WithLogger(logger).WithMetrics(metrics)
//	registry.Register(terminal.NewProvider(manager, capturer))
//	result, err := registry.Execute(ctx, "terminal.capture", params, appCtx)
package service
