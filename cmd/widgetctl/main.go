// Command widgetctl drives the chat backend from a terminal: it fetches
// sessions and runs interactive conversations through the same controller
// the widget bridge uses.
package main

func main() {
	Execute()
}
