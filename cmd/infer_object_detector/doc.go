// Package main provides the program running an exported hashtron object detector on
// images, printing one line per detected object.
package main
