package aws

import "fmt"

func errUnavailable(service string) error {
	return fmt.Errorf("%s client unavailable", service)
}
