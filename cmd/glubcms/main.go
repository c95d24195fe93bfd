// Command glubcms serves a content tree as JSON endpoints and renders the
// endpoints as HTML.
package main

func main() {
	Execute()
}
