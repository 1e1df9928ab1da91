// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package upload

import "github.com/alecthomas/kingpin/v2"

var (
	Cmd = kingpin.Command("upload", "Upload grade images and record them.")

	_ = Cmd.Command("batch", "Upload every image in a directory once.")
	_ = Cmd.Command("watch", "Upload images dropped into a directory on a schedule. (Foreground Daemon)")

	inputDirectory = Cmd.Flag("dir", "Directory holding the grade images.").Required().ExistingDir()
	archive        = Cmd.Flag("archive", "Move committed and rejected files out of the directory after a batch. Always on for watch.").Bool()
	watchInterval  = Cmd.Flag("interval", "How often watch scans the directory.").Default("1m").Duration()

	RecoverCmd    = kingpin.Command("recover", "Revoke credentials and roll back objects left in the journal by an interrupted run.")
	recoverDryRun = RecoverCmd.Flag("dry-run", "Only list what would be discharged.").Bool()
	recoverIDs    = RecoverCmd.Flag("id", "Only discharge the journal entry with this id. Repeatable.").Strings()
)
