// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components add their own fields: the terminal manager names its logger
// "terminal", captures log under "terminal.capture" and stream handlers
// tag entries with conn_id and session_id.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	if err != nil {
//		return err
//	}
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Connection(connID, sessionID).Info("Stream attached")
package logging
