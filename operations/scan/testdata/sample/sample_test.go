package sample

import "testing"

func TestIgnored(t *testing.T) {}
