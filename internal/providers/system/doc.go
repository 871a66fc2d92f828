// Package system exposes host information as agent tools: platform,
// default shell, live session count and server time.
package system
