// Package logx is orgbot's structured logger: a zerolog wrapper whose
// level and sinks can be swapped while loggers derived from it stay valid.
//
// Console output is human-oriented (short time, file:line caller); the file
// sink writes one JSON object per line.
package logx
