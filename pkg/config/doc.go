/*
Package config loads and validates FORGE's on-disk YAML configuration and
watches it for changes.

A Config always starts from Defaults() so a file that omits a section
still produces usable values; Load overlays whatever the file sets on
top of those defaults. Watch follows the directory containing the config
file with fsnotify (watching the directory, not the file, survives
editors that replace the file via rename) and pushes a freshly validated
Config down the returned channel on every write, or an error if the new
file fails validation.
*/
package config
