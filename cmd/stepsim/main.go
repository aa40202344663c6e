// stepsim runs the random-walk demonstration model with charts observed
// over the monitoring API.
package main

func main() {
	Execute()
}
