// zkvm 命令行：在进程内启动虚拟机并演示费用组装
package main

func main() {
	Execute()
}
