package util

import (
	"os"
	"path/filepath"
)

// CreateDataBaseDir creates Path/folderName if it does not already
// exist, mirroring the teacher's two-step mkdir-then-chmod sequence.
func CreateDataBaseDir(Path string, folderName string) bool {
	folderPath := filepath.Join(Path, folderName)
	if _, err := os.Stat(folderPath); os.IsNotExist(err) {
		// 必须分成两步：先创建文件夹、再修改权限
		os.Mkdir(folderPath, 0777) //0777也可以os.ModePerm
		os.Chmod(folderPath, 0777)
	}
	return true
}

// PathExists reports whether path exists, distinguishing a real stat
// error from a plain not-found.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
