// Copyright (C) The LINCS Processing Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	lincs "github.com/HFooladi/lincs-processing"
)

func main() {
	lincs.Main()
}
