// Command refinery cleans up the names of downloaded audio files.
package main

func main() {
	Execute()
}
