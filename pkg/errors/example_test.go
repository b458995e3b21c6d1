package errors_test

import (
	"fmt"
	"io"

	"github.com/garlicdevs/csv-cleaner/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeUnsupportedFormat, "unsupported source format").
		WithDetail("path", "scores.parquet").
		WithDetail("extension", ".parquet")

	fmt.Println(err.Error())

	// Output:
	// unsupported_format: unsupported source format
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read CSV file").
		WithDetail("file", "data.csv").
		WithDetail("line", 42)

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	fmt.Println(err)

	// Output:
	// This is a file error
	// file: failed to read CSV file: unexpected EOF
}

// ExampleIsNotFound shows that lookup misses stay recognisable after wrapping.
func ExampleIsNotFound() {
	miss := errors.New(errors.ErrorTypeNotFound, "dataset not found").
		WithDetail("name", "scores.csv")
	wrapped := errors.Wrap(miss, errors.ErrorTypeStorage, "fetch metadata")

	fmt.Printf("Wrapped is not_found: %v\n", errors.IsNotFound(wrapped))
	fmt.Printf("Outer type is storage: %v\n", errors.IsType(wrapped, errors.ErrorTypeStorage))
	fmt.Printf("Lookup miss is fatal: %v\n", errors.IsFatal(miss))

	// Output:
	// Wrapped is not_found: true
	// Outer type is storage: true
	// Lookup miss is fatal: false
}

// ExampleIsFatal demonstrates the run-level error taxonomy.
func ExampleIsFatal() {
	decoding := errors.New(errors.ErrorTypeDecoding, "invalid UTF-8 after fallback")
	rollback := errors.Newf(errors.ErrorTypeConversion, "value %q is not a boolean", "maybe")

	fmt.Printf("Decoding failure is fatal: %v\n", errors.IsFatal(decoding))
	fmt.Printf("Cast failure is fatal: %v\n", errors.IsFatal(rollback))

	// Output:
	// Decoding failure is fatal: true
	// Cast failure is fatal: false
}
