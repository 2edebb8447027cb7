package monitoring

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// GetMemoryUsage returns the current memory usage in bytes (used, total)
func GetMemoryUsage() (uint64, uint64) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, 0
	}
	defer file.Close()

	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		if strings.HasPrefix(line, "MemTotal:") {
			memTotal, _ = strconv.ParseUint(fields[1], 10, 64)
			memTotal *= 1024
		} else if strings.HasPrefix(line, "MemAvailable:") {
			memAvailable, _ = strconv.ParseUint(fields[1], 10, 64)
			memAvailable *= 1024
		}
	}

	if memTotal > 0 && memAvailable > 0 {
		return memTotal - memAvailable, memTotal
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, memTotal
}

// GetDiskUsage returns the disk usage for a given path in bytes (used, total)
func GetDiskUsage(path string) (uint64, uint64) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	return total - free, total
}

// SystemMetrics contains the host figures reported in a heartbeat
type SystemMetrics struct {
	MemoryUsage uint64
	MemoryTotal uint64
	DiskUsage   uint64
	DiskTotal   uint64
}

// CollectMetrics gathers memory and the disk usage of workdir
func CollectMetrics(workdir string) SystemMetrics {
	memUsed, memTotal := GetMemoryUsage()
	diskUsed, diskTotal := GetDiskUsage(workdir)

	return SystemMetrics{
		MemoryUsage: memUsed,
		MemoryTotal: memTotal,
		DiskUsage:   diskUsed,
		DiskTotal:   diskTotal,
	}
}
