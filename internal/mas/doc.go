// Package mas 管理多智能体系统（MAS）实例：定义、启动与停止的状态机，以及对运行中实例的查询。
package mas
