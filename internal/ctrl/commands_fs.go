package ctrl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/eriksl/esp32ctl/internal/ramfs"
)

func registerFsCommands(d *Dispatcher, svc *Services) {
	d.Register(&Command{
		Name: "fs-info", Alias: "fsi", Help: "show filesystem usage",
		Handler: func(call *CommandCall) string {
			used, err := svc.Ramfs.Ioctl(ramfs.IoctlGetUsed)
			if err != nil {
				return ioError("fs-info", err)
			}
			return fmt.Sprintf("RAMDISK mounted at /ramdisk:\n- used: %d kB", used/1024)
		},
	})

	d.Register(&Command{
		Name: "fs-list", Alias: "ls", Help: "list files",
		Handler: func(call *CommandCall) string {
			handle, err := svc.Ramfs.OpenDir("/")
			if err != nil {
				return ioError("fs-list", err)
			}
			defer svc.Ramfs.CloseDir(handle)

			names := []string{}
			for {
				name, ok, err := svc.Ramfs.ReadDir(handle)
				if err != nil {
					return ioError("fs-list", err)
				}
				if !ok {
					break
				}
				names = append(names, name)
			}
			sort.Strings(names)

			out := "DIRECTORY /"
			for _, name := range names {
				info, err := svc.Ramfs.Stat(name)
				if err != nil {
					continue
				}
				out += fmt.Sprintf("\n%3dk %-20s", info.Size/1024, name)
			}
			return out
		},
	})

	d.Register(&Command{
		Name: "fs-format", Alias: "fsf", Help: "wipe the filesystem",
		Handler: func(call *CommandCall) string {
			if _, err := svc.Ramfs.Ioctl(ramfs.IoctlWipe); err != nil {
				return ioError("fs-format", err)
			}
			return "format complete"
		},
	})

	d.Register(&Command{
		Name: "fs-read", Help: "read a chunk from a file",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: true, Base: 0, Description: "length"},
			{Kind: KindU32, Required: true, Base: 0, Description: "offset"},
			{Kind: KindString, Required: true, Description: "path"},
		},
		Handler: func(call *CommandCall) string {
			length, _ := call.Param(0)
			offset, _ := call.Param(1)
			path, _ := call.Param(2)

			fd, err := svc.Ramfs.Open(path.String, ramfs.ORdOnly)
			if err != nil {
				return fmt.Sprintf("ERROR: cannot open file %s: %s", path.String, err)
			}
			defer svc.Ramfs.Close(fd)

			if _, err := svc.Ramfs.Lseek(fd, int64(offset.U32), ramfs.SeekSet); err != nil {
				return "OK chunk read: 0"
			}

			data, err := svc.Ramfs.Read(fd, int(length.U32))
			if err != nil {
				return "ERROR: read failed"
			}
			call.ResultOOB = data
			return fmt.Sprintf("OK chunk read: %d", len(data))
		},
	})

	d.Register(&Command{
		Name: "fs-write", Help: "write a chunk to a file",
		Params: []ParameterSpec{
			{Kind: KindU32, Required: true, Base: 0, Description: "append flag"},
			{Kind: KindU32, Required: true, Base: 0, Description: "length"},
			{Kind: KindString, Required: true, Description: "path"},
		},
		Handler: func(call *CommandCall) string {
			appendFlag, _ := call.Param(0)
			length, _ := call.Param(1)
			path, _ := call.Param(2)

			if int(length.U32) != len(call.OOB) {
				return fmt.Sprintf("ERROR: length [%d] != oob data length [%d]", length.U32, len(call.OOB))
			}

			flags := ramfs.OWrOnly | ramfs.OCreate
			if appendFlag.U32 != 0 {
				flags |= ramfs.OAppend
			} else {
				flags |= ramfs.OTrunc
			}

			fd, err := svc.Ramfs.Open(path.String, flags)
			if err != nil {
				return fmt.Sprintf("ERROR: cannot open file %s: %s", path.String, err)
			}
			defer svc.Ramfs.Close(fd)

			n, err := svc.Ramfs.Write(fd, call.OOB)
			if err != nil || n != len(call.OOB) {
				return "ERROR: write failed"
			}

			info, err := svc.Ramfs.Fstat(fd)
			if err != nil {
				return "OK file length: -1"
			}
			return fmt.Sprintf("OK file length: %d", info.Size)
		},
	})

	d.Register(&Command{
		Name: "fs-erase", Help: "delete a file",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "path"},
		},
		Handler: func(call *CommandCall) string {
			path, _ := call.Param(0)
			if err := svc.Ramfs.Unlink(path.String); err != nil {
				return "ERROR: file erase failed"
			}
			return "OK file erased"
		},
	})

	d.Register(&Command{
		Name: "fs-rename", Alias: "mv", Help: "rename a file",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "from"},
			{Kind: KindString, Required: true, Description: "to"},
		},
		Handler: func(call *CommandCall) string {
			from, _ := call.Param(0)
			to, _ := call.Param(1)
			if err := svc.Ramfs.Rename(from.String, to.String); err != nil {
				return "ERROR: file rename failed"
			}
			return "OK file renamed"
		},
	})

	d.Register(&Command{
		Name: "fs-truncate", Help: "truncate a file",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "path"},
			{Kind: KindU32, Required: true, Base: 0, Description: "length"},
		},
		Handler: func(call *CommandCall) string {
			path, _ := call.Param(0)
			length, _ := call.Param(1)
			if err := svc.Ramfs.Truncate(path.String, int64(length.U32)); err != nil {
				return fmt.Sprintf("ERROR: cannot truncate file: %s", err)
			}
			return "OK truncated"
		},
	})

	d.Register(&Command{
		Name: "fs-checksum", Help: "compute a file's sha256 checksum",
		Params: []ParameterSpec{
			{Kind: KindString, Required: true, Description: "path"},
		},
		Handler: func(call *CommandCall) string {
			path, _ := call.Param(0)
			fd, err := svc.Ramfs.Open(path.String, ramfs.ORdOnly)
			if err != nil {
				return fmt.Sprintf("ERROR: cannot open file: %s", err)
			}
			defer svc.Ramfs.Close(fd)

			h := sha256.New()
			for {
				chunk, err := svc.Ramfs.Read(fd, 4096)
				if err != nil {
					return "ERROR: read failed"
				}
				if len(chunk) == 0 {
					break
				}
				h.Write(chunk)
			}
			return fmt.Sprintf("OK checksum: %s", hex.EncodeToString(h.Sum(nil)))
		},
	})
}
