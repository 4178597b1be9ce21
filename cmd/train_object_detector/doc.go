// Package main provides the program training a hashtron object detector from a csv of
// image annotations. The trained detector is exported next to the csv as a .mlmodel
// file, and its perplexity on the train and test subsets is printed.
//
// A csv path starting with a dash goes after "--". Any other flag error prints the
// usage line, like a wrong argument count.
package main
