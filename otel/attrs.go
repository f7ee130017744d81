// attrs.go: metric attribute helpers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import "go.opentelemetry.io/otel/attribute"

func ruleAttribute(rule string) attribute.KeyValue {
	return attribute.String("rule", rule)
}

func sampleSizeAttribute(n int) attribute.KeyValue {
	return attribute.Int("sample_size", n)
}
