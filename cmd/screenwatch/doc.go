// Command screenwatch watches a game's screenshot folder, reports how many
// numbered slots are taken, and moves the screenshots into a timestamped
// backup folder before the game runs out of names.
//
// `screenwatch run` is the long-running process; the other commands inspect
// the folder, the configuration and the rotation history without it.
package main
