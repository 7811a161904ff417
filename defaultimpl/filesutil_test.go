package impl_test

import (
	"os"
	"testing"

	impl "github.com/barentsen/fetchmon/defaultimpl"
	interf "github.com/barentsen/fetchmon/interfaces"
)

func TestFileById(t *testing.T) {
	fileId := "fileId"
	file := impl.NewFile(fileId, "", 0, 0)

	// TEST: input (nil, map:nil, map:file)
	if f, err := impl.FileById(nil, fileId); f != nil || err != os.ErrNotExist {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
	if f, err := impl.FileById(map[string]interf.File{"fileId": nil}, fileId); f != nil || err != os.ErrNotExist {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
	if f, err := impl.FileById(map[string]interf.File{"fileId": file}, fileId); f != file || err != nil {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
}

func TestFileByName(t *testing.T) {
	name := "name.file"
	file := impl.NewFile("", name, 0, 0)

	// TEST: input (nil, list:nil, list:file)
	if f, err := impl.FileByName(nil, name); f != nil || err != os.ErrNotExist {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
	if f, err := impl.FileByName([]interf.File{nil}, name); f != nil || err != os.ErrNotExist {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
	if f, err := impl.FileByName([]interf.File{file}, name); f != file || err != nil {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}

	// TEST: multiple files with the same name -> the latest wins
	oldFile := impl.NewFile("old", name, 100, 0)
	newFile := impl.NewFile("new", name, 200, 0)
	if f, err := impl.FileByName([]interf.File{oldFile, newFile}, name); f != newFile || err != nil {
		t.Fatalf("wrong file: f=%v, e=%v", f, err)
	}
	if f, err := impl.FileByName([]interf.File{newFile, oldFile}, name); f != newFile || err != nil {
		t.Fatalf("wrong file: f=%v, e=%v", f, err)
	}
}

func TestFileByAttr(t *testing.T) {
	name := "name.file"
	size := int64(123)
	file := impl.NewFile("", name, 0, size)

	// TEST: input (nil, list:nil, list:file)
	if f, err := impl.FileByAttr(nil, name, size); f != nil || err != os.ErrNotExist {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
	if f, err := impl.FileByAttr([]interf.File{nil}, name, size); f != nil || err != os.ErrNotExist {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
	if f, err := impl.FileByAttr([]interf.File{file}, name, size); f != file || err != nil {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}

	// TEST: wrong size
	if f, err := impl.FileByAttr([]interf.File{file}, name, size+1); f != nil || err != os.ErrNotExist {
		t.Fatalf("no error: f=%v, e=%v", f, err)
	}
}
