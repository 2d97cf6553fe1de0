/*
Package log provides structured logging for FORGE using zerolog.

All logs carry a timestamp, and loggers built with WithComponent add a
component field; output can be switched
between human-readable console output and newline-delimited JSON via
Config.JSONOutput, so FORGE's own logs can be tailed and parsed the same
way the worker status files and launcher output are.
*/
package log
